// Package main is the entry point for the helper binary.
//
// helper resolves loosely typed host references (project names, server
// ids, addresses, hostnames) against the auth host directory and either
// lists the candidates or hands a single host to the ssh wrapper.
//
// Usage:
//
//	helper search web              # every host in project "web"
//	helper go 42                   # connect to server id 42
//	helper go web web7 -- -A       # connect by name inside a project
//	helper journal --limit 5       # recent decisions
//	helper doctor                  # local diagnostics
package main

import (
	"fmt"
	"os"

	"github.com/treykane/auth-helper/internal/cli"
	"github.com/treykane/auth-helper/internal/security"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "helper:", security.UserMessage(err, true))
		os.Exit(cli.ExitCode(err))
	}
}
