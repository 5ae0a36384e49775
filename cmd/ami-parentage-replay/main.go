package main

import (
	"os"

	"github.com/upb/ami-parentage/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:]))
}
