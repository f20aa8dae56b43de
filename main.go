package main

import "event-registration/cmd"

func main() {
	cmd.Execute()
}
