package main

import "github.com/okian/tianji/internal/cli"

func main() {
	cli.Execute()
}
