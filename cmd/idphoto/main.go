package main

import "github.com/menta2k/idphoto/internal/cli"

func main() {
	cli.Execute()
}
