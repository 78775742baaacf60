package main

import (
	"fmt"
	"sort"

	"github.com/gosuri/uitable"
	"github.com/urfave/cli/v2"
)

var hostCommand = &cli.Command{
	Name:  "host",
	Usage: "Inspect hosts",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List the hosts of every inbound",
			Flags: []cli.Flag{
				cliFlagOutput,
			},
			Action: hostList,
		},
	},
}

func hostList(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	service, err := getService(c)
	if err != nil {
		return err
	}

	hosts, err := service.Hosts(c.Context)
	if err != nil {
		return commandError(c, err)
	}

	if len(hosts) == 0 {
		fmt.Println("No hosts found.")
		return nil
	}

	if done, err := printStructured(output, hosts); done {
		return err
	}

	tags := make([]string, 0, len(hosts))
	for tag := range hosts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	table := uitable.New()
	table.MaxColWidth = 40
	table.AddRow("INBOUND", "REMARK", "ADDRESS", "PORT", "SNI", "SECURITY", "DISABLED?")
	for _, tag := range tags {
		for _, host := range hosts[tag] {
			port := "inbound"
			if host.Port != nil {
				port = fmt.Sprint(*host.Port)
			}
			disabled := host.IsDisabled != nil && *host.IsDisabled
			table.AddRow(tag, host.Remark, host.Address, port, host.SNI, host.Security, disabled)
		}
	}
	fmt.Println(table)

	return nil
}
