package main

import "github.com/notargets/gomopt/cmd"

func main() {
	cmd.Execute()
}
