package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/goldtodo/internal/cli/repl"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Start an interactive shell",
		Description: `Reads commands line by line and runs them with the current global flags.
Type "?" after a prefix to list matching commands, "history" to see past
lines and "exit" to leave.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history-file",
				Usage: "History file; empty keeps history in memory",
				Value: repl.DefaultHistoryFile(),
			},
		},
		Action: func(c *cli.Context) error {
			base := inheritedArgs(c)
			exec := func(args []string) error {
				if len(args) > 0 && args[0] == "shell" {
					return errors.New("already in a shell")
				}
				app := App()
				app.Writer = c.App.Writer
				app.ErrWriter = c.App.ErrWriter
				app.ExitErrHandler = func(*cli.Context, error) {}
				return app.Run(append(append([]string{}, base...), args...))
			}

			fmt.Fprintf(c.App.Writer, "goldtodo shell (%s). Type \"help\" for commands, \"exit\" to quit.\n", c.App.Version)
			r := repl.New(exec, commandNames(App()),
				repl.WithIO(c.App.Reader, c.App.Writer),
				repl.WithHistory(repl.NewHistory(c.String("history-file"))),
			)
			return r.Run()
		},
	}
}

// inheritedArgs rebuilds the global flags the shell was started with so
// every line runs against the same server and output settings.
func inheritedArgs(c *cli.Context) []string {
	args := []string{c.App.Name, "--config", c.String("config")}
	for _, name := range []string{"server", "output"} {
		if c.IsSet(name) {
			args = append(args, "--"+name, c.String(name))
		}
	}
	if c.Bool("wide") {
		args = append(args, "--wide")
	}
	if c.IsSet("timeout") {
		args = append(args, "--timeout", c.Duration("timeout").String())
	}
	return args
}

// commandNames lists every command and "command subcommand" pair.
func commandNames(app *cli.App) []string {
	var names []string
	for _, cmd := range app.Commands {
		if cmd.Name == "shell" {
			continue
		}
		names = append(names, cmd.Name)
		for _, sub := range cmd.Subcommands {
			names = append(names, cmd.Name+" "+sub.Name)
		}
	}
	return names
}
