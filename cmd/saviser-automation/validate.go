package main

import (
	"context"
	"fmt"

	"github.com/saviser/automation/pkg/registry"
	"github.com/saviser/automation/pkg/rulefile"
	"github.com/urfave/cli/v3"
)

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Validate a rule file against the rule schema",
		ArgsUsage: "<rules.yaml>",
		Action: func(ctx context.Context, command *cli.Command) error {
			path := command.Args().First()
			if path == "" {
				return cli.Exit("a rule file is required", 1)
			}

			rules, err := rulefile.Load(path)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			defaults := map[string]bool{}
			for _, rule := range registry.DefaultRules() {
				defaults[rule.ID] = true
			}

			for _, rule := range rules {
				if defaults[rule.ID] {
					fmt.Printf("warning: rule %s shadows a default rule with the same id\n", rule.ID)
				}
			}

			fmt.Printf("%s: %d valid rules\n", path, len(rules))

			return nil
		},
	}
}
