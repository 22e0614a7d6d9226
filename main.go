package main

import "github.com/naka-gawa/gitcord/cmd"

func main() {
	cmd.Execute()
}
