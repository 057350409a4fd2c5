package main

import "github.com/buckleypaul/espfleet/internal/cli"

func main() {
	cli.Execute()
}
