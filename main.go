package main

import "github.com/keyglide/keyglide/cmd"

func main() {
	cmd.Execute()
}
