package main

import "github.com/extlabs/ext/pkg/cli"

func main() {
	cli.Execute(cli.NewRootCommand())
}
