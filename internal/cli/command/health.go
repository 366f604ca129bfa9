package command

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/goldtodo/internal/cli/connection"
	"github.com/yndnr/goldtodo/internal/cli/output"
	"github.com/yndnr/goldtodo/internal/infra/buildinfo"
)

type dependencyStatus struct {
	Status    string `json:"status"`
	LatencyMS *int64 `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// healthReport covers /health and /health/ready; the unused fields stay
// empty.
type healthReport struct {
	Status   string                      `json:"status"`
	Version  string                      `json:"version,omitempty"`
	Uptime   string                      `json:"uptime,omitempty"`
	Services map[string]dependencyStatus `json:"services,omitempty"`
	Checks   map[string]dependencyStatus `json:"checks,omitempty"`
}

// HealthCommand returns the health command.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:        "health",
		Usage:       "Check server health",
		Description: "Exits non-zero when the server reports itself unhealthy or not ready.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "ready",
				Usage: "Query the readiness probe instead",
			},
			&cli.BoolFlag{
				Name:  "live",
				Usage: "Query the liveness probe instead",
			},
		},
		Action: healthCheck,
	}
}

func healthCheck(c *cli.Context) error {
	if c.Bool("ready") && c.Bool("live") {
		return fmt.Errorf("--ready and --live are mutually exclusive")
	}
	path, want := "/health", "healthy"
	switch {
	case c.Bool("ready"):
		path, want = "/health/ready", "ready"
	case c.Bool("live"):
		path, want = "/health/live", "alive"
	}

	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	resp, err := client.Get(ctx, path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("health check failed: %v", err), 1)
	}

	var report healthReport
	err = connection.ParseResponse(resp, &report)
	if err != nil && report.Status == "" {
		return err
	}

	if flags.Output == output.FormatTable {
		fmt.Fprintf(c.App.Writer, "Server:  %s\nStatus:  %s\n", client.BaseURL(), report.Status)
		if report.Version != "" {
			fmt.Fprintf(c.App.Writer, "Version: %s\nUptime:  %s\n", report.Version, report.Uptime)
		}
		if deps := dependencyTable(report); len(deps.Rows) > 0 {
			fmt.Fprintln(c.App.Writer)
			if err := deps.Render(c.App.Writer); err != nil {
				return err
			}
		}
	} else if err := render(c, flags, report); err != nil {
		return err
	}

	if report.Status != want {
		return cli.Exit(fmt.Sprintf("server is %s", report.Status), 1)
	}
	return nil
}

func dependencyTable(report healthReport) *output.Table {
	deps := report.Services
	if deps == nil {
		deps = report.Checks
	}

	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	table := &output.Table{Headers: []string{"COMPONENT", "STATUS", "LATENCY", "ERROR"}}
	for _, name := range names {
		d := deps[name]
		latency, errText := "-", "-"
		if d.LatencyMS != nil {
			latency = strconv.FormatInt(*d.LatencyMS, 10) + "ms"
		}
		if d.Error != "" {
			errText = d.Error
		}
		table.AddRow(name, d.Status, latency, errText)
	}
	return table
}

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show client and server versions",
		Action: func(c *cli.Context) error {
			fmt.Fprintf(c.App.Writer, "Client: %s (go %s)\n", buildinfo.String(), buildinfo.GoVersion)

			client, flags, err := EnsureConnected(c)
			if err != nil {
				return err
			}
			ctx, cancel := requestContext(c, flags)
			defer cancel()

			var report healthReport
			resp, err := client.Get(ctx, "/health")
			if err == nil {
				err = connection.ParseResponse(resp, &report)
			}
			if err != nil {
				fmt.Fprintf(c.App.Writer, "Server: unreachable (%v)\n", err)
				return nil
			}
			fmt.Fprintf(c.App.Writer, "Server: %s at %s\n", report.Version, client.BaseURL())
			return nil
		},
	}
}
