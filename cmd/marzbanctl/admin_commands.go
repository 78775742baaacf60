package main

import (
	"fmt"
	"strconv"

	"github.com/gosuri/uitable"
	"github.com/urfave/cli/v2"

	"marzban-go/pkg/marzban"
)

var adminCommand = &cli.Command{
	Name:  "admin",
	Usage: "Inspect admins",
	Subcommands: []*cli.Command{
		{
			Name:  "current",
			Usage: "Show the admin marzbanctl is logged in as",
			Flags: []cli.Flag{
				cliFlagOutput,
			},
			Action: adminCurrent,
		},
		{
			Name:  "list",
			Usage: "List admins",
			Flags: []cli.Flag{
				cliFlagOutput,
			},
			Action: adminList,
		},
	},
}

func adminList(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	service, err := getService(c)
	if err != nil {
		return err
	}

	admins, err := service.ListAdmins(c.Context)
	if err != nil {
		return commandError(c, err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found.")
		return nil
	}

	if done, err := printStructured(output, admins); done {
		return err
	}

	table := uitable.New()
	table.AddRow("USERNAME", "SUDO?", "TELEGRAM ID")
	for _, admin := range admins {
		table.AddRow(admin.Username, admin.IsSudo, telegramID(admin))
	}
	fmt.Println(table)

	return nil
}

func adminCurrent(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	service, err := getService(c)
	if err != nil {
		return err
	}

	admin, err := service.CurrentAdmin(c.Context)
	if err != nil {
		return commandError(c, err)
	}

	if done, err := printStructured(output, admin); done {
		return err
	}

	table := uitable.New()
	table.AddRow("USERNAME:", admin.Username)
	table.AddRow("SUDO?:", admin.IsSudo)
	table.AddRow("TELEGRAM ID:", telegramID(admin))
	fmt.Println(table)

	return nil
}

func telegramID(admin *marzban.Admin) string {
	if admin.TelegramID == nil {
		return "-"
	}
	return strconv.FormatInt(*admin.TelegramID, 10)
}
