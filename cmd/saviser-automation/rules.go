package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/saviser/automation/pkg/models"
	"github.com/saviser/automation/pkg/registry"
	"github.com/saviser/automation/pkg/rulefile"
	"github.com/urfave/cli/v3"
)

func NewRulesCommand() *cli.Command {
	return &cli.Command{
		Name:    "rules",
		Aliases: []string{"ls"},
		Usage:   "List the default rules and those of a rule file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "rules-file",
				Usage:   "YAML file with rules added on top of the defaults",
				Sources: cli.EnvVars("RULES_FILE"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			rules := registry.DefaultRules()

			if path := command.String("rules-file"); path != "" {
				extra, err := rulefile.Load(path)
				if err != nil {
					return err
				}

				rules = append(rules, extra...)
			}

			return printRules(rules)
		},
	}
}

func printRules(rules []*models.Rule) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	fmt.Fprintln(w, "ID\tTRIGGER\tON\tCONDITIONS\tACTIONS\tACTIVE")

	for _, rule := range rules {
		on := rule.On
		if on == "" {
			on = "-"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%t\n",
			rule.ID, rule.Trigger, on, len(rule.Conditions), len(rule.Actions), rule.Active)
	}

	return w.Flush()
}
