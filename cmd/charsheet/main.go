package main

import "github.com/mcoot/charsheet/internal/cli"

func main() {
	cli.Execute()
}
