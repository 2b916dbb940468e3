package main

import "github.com/killallgit/promptforge/cmd"

func main() {
	cmd.Execute()
}
