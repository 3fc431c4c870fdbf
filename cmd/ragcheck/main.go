package main

import "ragcheck/internal/cli"

func main() {
	cli.Execute()
}
