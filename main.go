package main

import "github.com/FluidXR/devmon/cmd"

func main() {
	cmd.Execute()
}
