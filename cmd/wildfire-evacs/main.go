package main

import "github.com/prairiefire/wildfire-evacs/internal/cli"

func main() {
	cli.Execute()
}
