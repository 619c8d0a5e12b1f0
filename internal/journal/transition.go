package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// Transition is one recorded device state change.
type Transition struct {
	ID           int64
	DeviceSerial string
	From         string
	To           string
	At           time.Time
}

// RecordTransition appends a state change for a device.
func (j *DB) RecordTransition(deviceSerial, from, to string, at time.Time) error {
	_, err := j.db.Exec(
		`INSERT INTO transitions (device_serial, from_state, to_state, at)
		 VALUES (?, ?, ?, ?)`,
		deviceSerial, from, to, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

// History returns up to limit most recent transitions for a device, newest
// first. A limit of zero or less means no limit.
func (j *DB) History(deviceSerial string, limit int) ([]Transition, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats negative LIMIT as unlimited
	}
	rows, err := j.db.Query(
		`SELECT id, device_serial, from_state, to_state, at
		 FROM transitions
		 WHERE device_serial = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		deviceSerial, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	var transitions []Transition
	for rows.Next() {
		var t Transition
		if err := rows.Scan(&t.ID, &t.DeviceSerial, &t.From, &t.To, &t.At); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		transitions = append(transitions, t)
	}
	return transitions, rows.Err()
}

// DeviceStats summarizes a device's recorded history.
type DeviceStats struct {
	Transitions int
	Drops       int // transitions into offline or not_available
	LastSeen    *time.Time
}

// GetDeviceStats returns journal statistics for a device.
func (j *DB) GetDeviceStats(deviceSerial string) (DeviceStats, error) {
	var stats DeviceStats
	err := j.db.QueryRow(
		`SELECT COUNT(*) FROM transitions WHERE device_serial = ?`, deviceSerial,
	).Scan(&stats.Transitions)
	if err != nil {
		return stats, err
	}
	err = j.db.QueryRow(
		`SELECT COUNT(*) FROM transitions
		 WHERE device_serial = ? AND to_state IN ('offline', 'not_available')`,
		deviceSerial,
	).Scan(&stats.Drops)
	if err != nil {
		return stats, err
	}
	var last time.Time
	err = j.db.QueryRow(
		`SELECT at FROM transitions WHERE device_serial = ? ORDER BY id DESC LIMIT 1`,
		deviceSerial,
	).Scan(&last)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return stats, err
	default:
		stats.LastSeen = &last
	}
	return stats, nil
}
