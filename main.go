package main

import "github.com/tanpawarit/insurance-copilot/cli"

func main() {
	cli.Execute()
}
