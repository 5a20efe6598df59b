package main

import "fxhedge/internal/cli"

func main() {
	cli.Execute()
}
