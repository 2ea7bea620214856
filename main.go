package main

import "github.com/cardshed/pickwick/cmd"

// execute is indirected so tests can verify main wires up the CLI.
var execute = cmd.Execute

func main() {
	execute()
}
