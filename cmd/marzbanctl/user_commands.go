package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"marzban-go/internal/constants"
	"marzban-go/internal/helpers"
	"marzban-go/internal/services"
	"marzban-go/pkg/marzban"
)

var userCommand = &cli.Command{
	Name:  "user",
	Usage: "Manage users",
	Subcommands: []*cli.Command{
		{
			Name:      "create-from-template",
			Usage:     "Create a user from a user template",
			ArgsUsage: "TEMPLATE_ID BASE_USERNAME",
			Description: "The template's username prefix and suffix are applied " +
				"to BASE_USERNAME",
			Flags: []cli.Flag{
				cliFlagOutput,
			},
			Action: userCreateFromTemplate,
		},
		{
			Name:      "delete",
			Usage:     "Delete a user",
			ArgsUsage: "USERNAME",
			Action:    userDelete,
		},
		{
			Name:  "expired",
			Usage: "List or delete expired users",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  flagOlderThan,
					Usage: "Only users that expired more than N days ago",
					Value: "0",
				},
				&cli.BoolFlag{
					Name:  flagDelete,
					Usage: "If set, will delete the expired users",
				},
			},
			Action: userExpired,
		},
		{
			Name:      "get",
			Usage:     "Get a user",
			ArgsUsage: "USERNAME",
			Flags: []cli.Flag{
				cliFlagOutput,
			},
			Action: userGet,
		},
		{
			Name:  "list",
			Usage: "List users",
			Flags: []cli.Flag{
				cliFlagOutput,
				&cli.StringFlag{
					Name:    flagSearch,
					Aliases: []string{"s"},
					Usage:   "Only users whose username contains this text",
				},
				&cli.StringFlag{
					Name:  flagStatus,
					Usage: "Only users in this status",
				},
				&cli.StringSliceFlag{
					Name:  flagAdmin,
					Usage: "Only users owned by this admin (repeatable)",
				},
				&cli.IntFlag{
					Name:  flagOffset,
					Usage: "Skip this many users",
				},
				&cli.IntFlag{
					Name:  flagLimit,
					Usage: "Return at most this many users",
				},
			},
			Action: userList,
		},
		{
			Name:      "qr",
			Usage:     "Write a user's subscription QR code as PNG",
			ArgsUsage: "USERNAME",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    flagFile,
					Aliases: []string{"f"},
					Usage:   "Output file (defaults to USERNAME.png)",
				},
				&cli.IntFlag{
					Name:  flagSize,
					Usage: "Image edge in pixels",
					Value: constants.DefaultQRSize,
				},
			},
			Action: userQR,
		},
		{
			Name:      "reset",
			Usage:     "Reset a user's traffic",
			ArgsUsage: "USERNAME",
			Action:    userReset,
		},
		{
			Name:      "revoke",
			Usage:     "Revoke a user's subscription",
			ArgsUsage: "USERNAME",
			Action:    userRevoke,
		},
		{
			Name:      "set-owner",
			Usage:     "Hand a user over to another admin",
			ArgsUsage: "USERNAME ADMIN_USERNAME",
			Action:    userSetOwner,
		},
		{
			Name:      "usage",
			Usage:     "Show a user's traffic per node",
			ArgsUsage: "USERNAME",
			Flags: []cli.Flag{
				cliFlagOutput,
				cliFlagDays,
			},
			Action: userUsage,
		},
	},
}

func userList(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	service, err := getService(c)
	if err != nil {
		return err
	}

	list, err := service.ListUsers(c.Context, marzban.UserFilter{
		Offset: c.Int(flagOffset),
		Limit:  c.Int(flagLimit),
		Search: c.String(flagSearch),
		Admins: c.StringSlice(flagAdmin),
		Status: marzban.UserStatus(c.String(flagStatus)),
	})
	if err != nil {
		return commandError(c, err)
	}

	if len(list.Users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	if done, err := printStructured(output, list); done {
		return err
	}

	table := uitable.New()
	table.AddRow("", "USERNAME", "STATUS", "TRAFFIC", "LIMIT", "EXPIRES", "OWNER")
	for _, user := range list.Users {
		expires := "never"
		if expire, ok := user.ExpireTime(); ok {
			expires = expire.Format(constants.DateFormat)
		}
		owner := ""
		if user.Admin != nil {
			owner = user.Admin.Username
		}
		table.AddRow(
			helpers.StatusIcon(user.Status),
			user.Username,
			user.Status,
			helpers.FormatBytes(user.UsedTraffic),
			helpers.FormatDataLimit(user.DataLimit),
			expires,
			owner,
		)
	}
	fmt.Println(table)
	fmt.Printf("\n%d of %d users\n", len(list.Users), list.Total)

	return nil
}

func userGet(c *cli.Context) error {
	if err := requireArgs(c, "USERNAME"); err != nil {
		return err
	}
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	service, err := getService(c)
	if err != nil {
		return err
	}

	user, err := service.GetUser(c.Context, c.Args().First())
	if err != nil {
		return commandError(c, err)
	}
	return printUser(service, output, user)
}

func userCreateFromTemplate(c *cli.Context) error {
	if err := requireArgs(c, "TEMPLATE_ID", "BASE_USERNAME"); err != nil {
		return err
	}
	templateID, err := strconv.Atoi(c.Args().Get(0))
	if err != nil {
		return errors.Errorf("invalid template id %q", c.Args().Get(0))
	}
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	service, err := getService(c)
	if err != nil {
		return err
	}

	user, err := service.CreateUserFromTemplate(c.Context, templateID, c.Args().Get(1))
	if err != nil {
		return commandError(c, err)
	}
	return printUser(service, output, user)
}

func printUser(service *services.PanelService, output string, user *marzban.User) error {
	if done, err := printStructured(output, user); done {
		return err
	}

	subURL := ""
	if user.SubscriptionURL != "" {
		var err error
		if subURL, err = service.SubscriptionURL(user); err != nil {
			return err
		}
	}
	fmt.Print(helpers.FormatUserInfo(user, subURL))
	return nil
}

func userDelete(c *cli.Context) error {
	if err := requireArgs(c, "USERNAME"); err != nil {
		return err
	}
	username := c.Args().First()

	service, err := getService(c)
	if err != nil {
		return err
	}

	if err := service.DeleteUser(c.Context, username); err != nil {
		return commandError(c, err)
	}

	fmt.Printf("User %q deleted.\n", username)

	return nil
}

func userReset(c *cli.Context) error {
	if err := requireArgs(c, "USERNAME"); err != nil {
		return err
	}
	username := c.Args().First()

	service, err := getService(c)
	if err != nil {
		return err
	}

	if _, err := service.ResetUser(c.Context, username); err != nil {
		return commandError(c, err)
	}

	fmt.Printf("Traffic of user %q reset.\n", username)

	return nil
}

func userRevoke(c *cli.Context) error {
	if err := requireArgs(c, "USERNAME"); err != nil {
		return err
	}

	service, err := getService(c)
	if err != nil {
		return err
	}

	user, err := service.RevokeUser(c.Context, c.Args().First())
	if err != nil {
		return commandError(c, err)
	}
	subURL, err := service.SubscriptionURL(user)
	if err != nil {
		return commandError(c, err)
	}

	fmt.Printf("Subscription of user %q revoked.\nNew link: %s\n", user.Username, subURL)

	return nil
}

func userSetOwner(c *cli.Context) error {
	if err := requireArgs(c, "USERNAME", "ADMIN_USERNAME"); err != nil {
		return err
	}

	service, err := getService(c)
	if err != nil {
		return err
	}

	user, err := service.SetOwner(c.Context, c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return commandError(c, err)
	}

	fmt.Printf("User %q now belongs to %q.\n", user.Username, user.Admin.Username)

	return nil
}

func userUsage(c *cli.Context) error {
	if err := requireArgs(c, "USERNAME"); err != nil {
		return err
	}
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

	usage, err := service.UserUsage(c.Context, c.Args().First(), days)
	if err != nil {
		return commandError(c, err)
	}

	if done, err := printStructured(output, usage); done {
		return err
	}
	fmt.Print(helpers.FormatUserUsageReport(usage))

	return nil
}

func userQR(c *cli.Context) error {
	if err := requireArgs(c, "USERNAME"); err != nil {
		return err
	}
	username := c.Args().First()
	file := c.String(flagFile)
	if file == "" {
		file = username + ".png"
	}

	service, err := getService(c)
	if err != nil {
		return err
	}

	user, err := service.GetUser(c.Context, username)
	if err != nil {
		return commandError(c, err)
	}
	subURL, err := service.SubscriptionURL(user)
	if err != nil {
		return commandError(c, err)
	}

	qr := services.NewQRService(service.Logger(), c.Int(flagSize))
	if err := qr.WriteFile(subURL, file); err != nil {
		return errors.Wrapf(err, "error writing QR code of user %q", username)
	}

	fmt.Printf("QR code of user %q written to %s.\n", username, file)

	return nil
}

func userExpired(c *cli.Context) error {
	days, err := parseDays(c, flagOlderThan)
	if err != nil {
		return err
	}
	remove := c.Bool(flagDelete)

	service, err := getService(c)
	if err != nil {
		return err
	}

	usernames, err := service.ExpiredUsers(c.Context, days, remove)
	if err != nil {
		if remove && errors.Is(err, marzban.ErrNotFound) {
			fmt.Println("No expired users found.")
			return nil
		}
		return commandError(c, err)
	}

	if len(usernames) == 0 {
		fmt.Println("No expired users found.")
		return nil
	}

	verb := "Expired"
	if remove {
		verb = "Deleted"
	}
	fmt.Printf("%s users (%d):\n%s\n", verb, len(usernames), strings.Join(usernames, "\n"))

	return nil
}
