package main

import "github.com/andreyvit/d2data/internal/cli"

func main() {
	cli.Execute()
}
