package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/urfave/cli/v2"

	"marzban-go/internal/helpers"
)

var templateCommand = &cli.Command{
	Name:  "template",
	Usage: "Inspect user templates",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List user templates",
			Flags: []cli.Flag{
				cliFlagOutput,
			},
			Action: templateList,
		},
	},
}

func templateList(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	service, err := getService(c)
	if err != nil {
		return err
	}

	templates, err := service.ListTemplates(c.Context)
	if err != nil {
		return commandError(c, err)
	}

	if len(templates) == 0 {
		fmt.Println("No user templates found.")
		return nil
	}

	if done, err := printStructured(output, templates); done {
		return err
	}

	table := uitable.New()
	table.AddRow("ID", "NAME", "DATA LIMIT", "DURATION", "USERNAME", "PROTOCOLS")
	for _, template := range templates {
		id, _ := template.ID()
		duration := "∞"
		if template.ExpireDuration > 0 {
			duration = template.ExpireDuration.String()
		}
		protocols := make([]string, 0, len(template.Inbounds))
		for protocol := range template.Inbounds {
			protocols = append(protocols, protocol)
		}
		sort.Strings(protocols)
		table.AddRow(
			id,
			template.Name,
			helpers.FormatDataLimit(template.DataLimit),
			duration,
			helpers.TemplateUsername(template, "<name>"),
			strings.Join(protocols, ","),
		)
	}
	fmt.Println(table)

	return nil
}
