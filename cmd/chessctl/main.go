package main

import "github.com/Aryan9626/chess-app/internal/cli"

func main() {
	cli.Execute()
}
