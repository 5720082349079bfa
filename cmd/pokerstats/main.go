package main

import "github.com/mcoot/pokerstats/internal/cli"

func main() {
	cli.Execute()
}
