package main

import "github.com/SaloEater/varefined/cmd"

// Version is set via ldflags during build
var version = "0.3.0-dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
