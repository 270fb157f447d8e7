package main

import "github.com/voxmaster/voice-engine/cmd"

func main() {
	cmd.Execute()
}
