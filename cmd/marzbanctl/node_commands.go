package main

import (
	"fmt"
	"strconv"

	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"marzban-go/internal/helpers"
)

var nodeCommand = &cli.Command{
	Name:  "node",
	Usage: "Manage nodes",
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List nodes",
			Flags: []cli.Flag{
				cliFlagOutput,
			},
			Action: nodeList,
		},
		{
			Name:      "reconnect",
			Usage:     "Reconnect a node",
			ArgsUsage: "NODE_ID",
			Action:    nodeReconnect,
		},
		{
			Name:  "settings",
			Usage: "Print the certificate and minimum version nodes need",
			Flags: []cli.Flag{
				cliFlagOutput,
			},
			Action: nodeSettings,
		},
		{
			Name:  "usage",
			Usage: "Show traffic per node",
			Flags: []cli.Flag{
				cliFlagOutput,
				cliFlagDays,
			},
			Action: nodeUsage,
		},
	},
}

func nodeList(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	service, err := getService(c)
	if err != nil {
		return err
	}

	nodes, err := service.ListNodes(c.Context)
	if err != nil {
		return commandError(c, err)
	}

	if len(nodes) == 0 {
		fmt.Println("No nodes found.")
		return nil
	}

	if done, err := printStructured(output, nodes); done {
		return err
	}

	table := uitable.New()
	table.AddRow("ID", "NAME", "ADDRESS", "PORT", "API PORT", "COEFF", "STATUS", "XRAY")
	for _, node := range nodes {
		id, _ := node.ID()
		xray := ""
		if node.XrayVersion != nil {
			xray = *node.XrayVersion
		}
		table.AddRow(
			id,
			node.Name,
			node.Address,
			node.Port,
			node.APIPort,
			node.UsageCoefficient,
			node.Status,
			xray,
		)
	}
	fmt.Println(table)

	return nil
}

func nodeReconnect(c *cli.Context) error {
	if err := requireArgs(c, "NODE_ID"); err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Args().First())
	if err != nil {
		return errors.Errorf("invalid node id %q", c.Args().First())
	}

	service, err := getService(c)
	if err != nil {
		return err
	}

	if err := service.ReconnectNode(c.Context, id); err != nil {
		return commandError(c, err)
	}

	fmt.Printf("Node %d reconnecting.\n", id)

	return nil
}

func nodeSettings(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	service, err := getService(c)
	if err != nil {
		return err
	}

	settings, err := service.NodeSettings(c.Context)
	if err != nil {
		return commandError(c, err)
	}

	if done, err := printStructured(output, settings); done {
		return err
	}
	fmt.Printf("Minimum node version: %s\n\n%s", settings.MinNodeVersion, settings.Certificate)

	return nil
}

func nodeUsage(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}
	days, err := parseDays(c, flagDays)
	if err != nil {
		return err
	}

	service, err := getService(c)
	if err != nil {
		return err
	}

	usages, err := service.NodesUsage(c.Context, days)
	if err != nil {
		return commandError(c, err)
	}

	if done, err := printStructured(output, usages); done {
		return err
	}
	fmt.Print(helpers.FormatNodeUsageReport(usages))

	return nil
}
