package main

import "github.com/modwin/modwin/cmd"

func main() {
	cmd.Execute()
}
