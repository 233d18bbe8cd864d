package main

import "github.com/omnisketch/drivergen/cmd"

func main() {
	cmd.Execute()
}
