// Package main provides the SAVISER automation engine command.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "saviser-automation",
		Usage:                 "Run clinical automation rules for SAVISER",
		EnableShellCompletion: true,
		Commands: []*cli.Command{
			RunCommand(),
			NewValidateCommand(),
			NewRulesCommand(),
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
