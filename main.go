package main

import "github.com/pyarch/pyarch/cmd"

func main() {
	cmd.Execute()
}
