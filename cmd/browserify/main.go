package main

import "browserify/internal/cli"

func main() {
	cli.Execute()
}
