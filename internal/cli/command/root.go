package command

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/goldtodo/internal/cli/config"
	"github.com/yndnr/goldtodo/internal/cli/connection"
	"github.com/yndnr/goldtodo/internal/cli/output"
	"github.com/yndnr/goldtodo/internal/infra/buildinfo"
)

const metaConfig = "cliConfig"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "goldtodo-cli",
		Usage:   "Manage todos and inspect the golden signals of a goldtodo server",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			TodoCommand(),
			MetricsCommand(),
			HealthCommand(),
			VersionCommand(),
			ConfigCommand(),
			ShellCommand(),
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("load cli config: %w", err)
			}
			if c.App.Metadata == nil {
				c.App.Metadata = make(map[string]any)
			}
			c.App.Metadata[metaConfig] = cfg
			return nil
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "goldtodo server address (e.g., localhost:3000)",
			EnvVars: []string{"GOLDTODO_SERVER"},
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI configuration file",
			EnvVars: []string{"GOLDTODO_CLI_CONFIG"},
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			EnvVars: []string{"GOLDTODO_OUTPUT"},
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
		},
	}
}

// GlobalFlags are the resolved global settings: flags first, then the CLI
// configuration file, then built-in defaults.
type GlobalFlags struct {
	Server  string
	Output  output.Format
	Wide    bool
	Timeout time.Duration
}

// ParseGlobalFlags resolves the global settings for c.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg := cliConfig(c)

	flags := &GlobalFlags{
		Server:  cfg.Server,
		Timeout: cfg.Timeout,
		Wide:    c.Bool("wide"),
	}
	if s := c.String("server"); s != "" {
		flags.Server = s
	}
	if d := c.Duration("timeout"); d > 0 {
		flags.Timeout = d
	}

	format := cfg.Output
	if o := c.String("output"); o != "" {
		format = o
	}
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	flags.Output = f
	return flags, nil
}

// cliConfig returns the configuration loaded in Before, or the defaults.
func cliConfig(c *cli.Context) *config.CLIConfig {
	if c.App != nil {
		if cfg, ok := c.App.Metadata[metaConfig].(*config.CLIConfig); ok {
			return cfg
		}
	}
	return config.Default()
}

// EnsureConnected builds the HTTP client for the resolved server.
func EnsureConnected(c *cli.Context) (*connection.HTTPClient, *GlobalFlags, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, nil, err
	}
	server, err := config.NormalizeServer(flags.Server)
	if err != nil {
		return nil, nil, err
	}
	return connection.NewHTTPClient(server, flags.Timeout), flags, nil
}

// requestContext bounds one command's requests.
func requestContext(c *cli.Context, flags *GlobalFlags) (context.Context, context.CancelFunc) {
	timeout := flags.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(c.Context, timeout)
}

// render writes data in the selected format.
func render(c *cli.Context, flags *GlobalFlags, data any) error {
	return output.NewFormatter(flags.Output, flags.Wide).Format(c.App.Writer, data)
}

// PrintError prints an error message to the error writer.
func PrintError(c *cli.Context, format string, args ...any) {
	fmt.Fprintf(c.App.ErrWriter, "error: "+format+"\n", args...)
}
