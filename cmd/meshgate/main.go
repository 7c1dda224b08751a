package main

import "github.com/ppiankov/meshgate/internal/cli"

func main() {
	cli.Execute()
}
