package main

import (
	"fmt"
	"sort"

	"github.com/gosuri/uitable"
	"github.com/urfave/cli/v2"

	"marzban-go/internal/helpers"
	"marzban-go/pkg/marzban"
)

var systemCommand = &cli.Command{
	Name:  "system",
	Usage: "Show panel stats and inbounds",
	Flags: []cli.Flag{
		cliFlagOutput,
	},
	Action: systemShow,
}

func systemShow(c *cli.Context) error {
	output := c.String(flagOutput)
	if err := validateOutputFormat(output); err != nil {
		return err
	}

	service, err := getService(c)
	if err != nil {
		return err
	}

	snapshot, err := service.Snapshot(c.Context)
	if err != nil {
		return commandError(c, err)
	}

	if done, err := printStructured(output, snapshot); done {
		return err
	}

	stats := snapshot.Stats
	table := uitable.New()
	table.AddRow("VERSION:", stats.Version)
	table.AddRow("CPU:", fmt.Sprintf("%d cores, %.1f%%", stats.CPUCores, stats.CPUUsage))
	table.AddRow("MEMORY:", fmt.Sprintf("%s / %s", helpers.FormatBytes(stats.MemUsed), helpers.FormatBytes(stats.MemTotal)))
	table.AddRow("USERS:", fmt.Sprintf(
		"%d total, %d active, %d online, %d on hold, %d disabled, %d expired, %d limited",
		stats.TotalUser,
		stats.UsersActive,
		stats.OnlineUsers,
		stats.UsersOnHold,
		stats.UsersDisabled,
		stats.UsersExpired,
		stats.UsersLimited,
	))
	table.AddRow("BANDWIDTH:", fmt.Sprintf(
		"↓ %s ↑ %s",
		helpers.FormatBytes(stats.IncomingBandwidth),
		helpers.FormatBytes(stats.OutgoingBandwidth),
	))
	fmt.Println(table)
	fmt.Println()

	protocols := make([]string, 0, len(snapshot.Inbounds))
	for protocol := range snapshot.Inbounds {
		protocols = append(protocols, string(protocol))
	}
	sort.Strings(protocols)

	inbounds := uitable.New()
	inbounds.AddRow("TAG", "PROTOCOL", "NETWORK", "TLS", "PORT")
	for _, protocol := range protocols {
		for _, inbound := range snapshot.Inbounds[marzban.Protocol(protocol)] {
			inbounds.AddRow(inbound.Tag, inbound.Protocol, inbound.Network, inbound.TLS, string(inbound.Port))
		}
	}
	fmt.Println(inbounds)

	return nil
}
