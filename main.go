package main

import "race-telemetry/cmd"

func main() {
	cmd.Execute()
}
