package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"marzban-go/internal/config"
	apperrors "marzban-go/internal/errors"
	"marzban-go/internal/services"
	"marzban-go/internal/validation"
)

func getService(c *cli.Context) (*services.PanelService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "error loading configuration")
	}
	if c.Bool(flagInsecure) {
		cfg.Panel.Insecure = true
	}

	logger := setupLogger(cfg.LogLevel)
	service := services.NewPanelService(cfg, logger)
	if err := service.EnsureLogin(c.Context); err != nil {
		return nil, commandError(c, errors.Wrap(err, "error logging in to panel"))
	}
	return service, nil
}

func commandError(c *cli.Context, err error) error {
	return &apperrors.CommandError{Command: c.Command.FullName(), Err: err}
}

func requireArgs(c *cli.Context, usage ...string) error {
	if c.Args().Len() != len(usage) {
		return errors.Errorf(
			"%s requires %d argument(s): %s",
			c.Command.FullName(),
			len(usage),
			strings.Join(usage, " "),
		)
	}
	return nil
}

func validateOutputFormat(outputFormat string) error {
	switch strings.ToLower(outputFormat) {
	case "table":
	case "yaml":
	case "json":
	default:
		return errors.Errorf("unknown output format %q", outputFormat)
	}
	return nil
}

func parseDays(c *cli.Context, flag string) (int, error) {
	days, err := validation.ValidateDays(c.String(flag))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid --%s", flag)
	}
	return days, nil
}

// printStructured prints v as yaml or json. It reports false for table output,
// which every command renders itself.
func printStructured(output string, v interface{}) (bool, error) {
	switch strings.ToLower(output) {
	case "yaml":
		yamlBytes, err := yaml.Marshal(v)
		if err != nil {
			return true, errors.Wrap(err, "error formatting output")
		}
		fmt.Println(string(yamlBytes))
		return true, nil
	case "json":
		prettyJSON, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, errors.Wrap(err, "error formatting output")
		}
		fmt.Println(string(prettyJSON))
		return true, nil
	}
	return false, nil
}
