package main

import "github.com/urfave/cli/v2"

const (
	flagAdmin     = "admin"
	flagDays      = "days"
	flagDelete    = "delete"
	flagFile      = "file"
	flagInsecure  = "insecure"
	flagLimit     = "limit"
	flagOffset    = "offset"
	flagOlderThan = "older-than"
	flagOutput    = "output"
	flagSearch    = "search"
	flagSize      = "size"
	flagStatus    = "status"
)

var (
	cliFlagOutput = &cli.StringFlag{
		Name:    flagOutput,
		Aliases: []string{"o"},
		Usage:   "Return output in another format. Supported formats: table, yaml, json",
		Value:   "table",
	}
	cliFlagDays = &cli.StringFlag{
		Name:    flagDays,
		Aliases: []string{"d"},
		Usage:   "Only count traffic of the last N days (0 for the panel default)",
		Value:   "0",
	}
)
