package main

import "github.com/fricosched/frico/cmd"

func main() {
	cmd.Execute()
}
