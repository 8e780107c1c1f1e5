package main

import (
	"os"

	"github.com/ava-labs/cargo-workspace-version/cmd/cargo-workspace-version/commands"
)

func main() {
	os.Exit(commands.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
