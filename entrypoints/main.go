package main

import "github.com/Laisky/laisky-collab/cmd"

func main() {
	cmd.Execute()
}
