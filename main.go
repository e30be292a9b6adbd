package main

import "tribe-fitness/internal/cli"

func main() {
	cli.Execute()
}
