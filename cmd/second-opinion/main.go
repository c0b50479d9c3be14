package main

import "github.com/jerzydziewierz/second-opinion/internal/cli"

func main() {
	cli.Execute()
}
