package main

import "tracker/cmd/client/cmd"

func main() {
	cmd.Execute()
}
