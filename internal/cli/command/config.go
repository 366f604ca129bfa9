package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/goldtodo/internal/cli/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "CLI configuration management",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective CLI configuration",
				Action: configShow,
			},
			{
				Name:      "set",
				Usage:     "Set a configuration value (server, output, timeout)",
				ArgsUsage: "KEY VALUE",
				Action:    configSet,
			},
			{
				Name:  "path",
				Usage: "Print the configuration file path",
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, c.String("config"))
					return nil
				},
			},
		},
	}
}

// effectiveConfig is what config show prints.
type effectiveConfig struct {
	File    string `json:"file" table:"FILE"`
	Server  string `json:"server" table:"SERVER"`
	Output  string `json:"output" table:"OUTPUT"`
	Timeout string `json:"timeout" table:"TIMEOUT"`
}

func configShow(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	return render(c, flags, effectiveConfig{
		File:    c.String("config"),
		Server:  flags.Server,
		Output:  string(flags.Output),
		Timeout: flags.Timeout.String(),
	})
}

func configSet(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: config set KEY VALUE")
	}
	key, value := c.Args().Get(0), c.Args().Get(1)

	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	switch key {
	case "server":
		server, err := config.NormalizeServer(value)
		if err != nil {
			return err
		}
		cfg.Server = server
	case "output":
		cfg.Output = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", value, err)
		}
		cfg.Timeout = d
	default:
		return fmt.Errorf("unknown key %q (want server, output or timeout)", key)
	}

	if err := config.Save(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s set to %s in %s\n", key, value, path)
	return nil
}
