package monitor

// DeviceState is the discrete connectivity state of a managed device.
// Exactly one value is current at any instant; transitions are pushed by
// whichever component receives raw connectivity events (the fleet manager).
type DeviceState int

const (
	StateUnknown DeviceState = iota
	StateNotAvailable
	StateOffline
	StateOnline
	StateUnauthorized
	StateRecovery
	StateBootloader
)

var stateNames = map[DeviceState]string{
	StateUnknown:      "unknown",
	StateNotAvailable: "not_available",
	StateOffline:      "offline",
	StateOnline:       "online",
	StateUnauthorized: "unauthorized",
	StateRecovery:     "recovery",
	StateBootloader:   "bootloader",
}

func (s DeviceState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseState maps the state column of `adb devices -l` output to a
// DeviceState. An empty string means the device is not visible at all.
func ParseState(adbState string) DeviceState {
	switch adbState {
	case "device":
		return StateOnline
	case "offline":
		return StateOffline
	case "unauthorized":
		return StateUnauthorized
	case "recovery":
		return StateRecovery
	case "bootloader", "fastboot":
		return StateBootloader
	case "":
		return StateNotAvailable
	default:
		return StateUnknown
	}
}
