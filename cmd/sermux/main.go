package main

import "github.com/jhemmel/sermux/cmd/sermux/commands"

func main() {
	commands.Execute()
}
