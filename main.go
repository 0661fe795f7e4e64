package main

import "github.com/ZacxDev/eagerstart/cmd"

var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
