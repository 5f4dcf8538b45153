package main

import "github.com/sadopc/nexus/internal/cli"

func main() {
	cli.Execute()
}
