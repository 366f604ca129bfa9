package command

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/goldtodo/internal/cli/connection"
)

// todoView is a todo as the server returns it.
type todoView struct {
	ID          int64     `json:"id" table:"ID"`
	Title       string    `json:"title" table:"TITLE"`
	Description string    `json:"description,omitempty" table:"DESCRIPTION,wide"`
	Completed   bool      `json:"completed" table:"DONE"`
	CreatedAt   time.Time `json:"created_at" table:"CREATED,wide"`
	UpdatedAt   time.Time `json:"updated_at" table:"UPDATED"`
}

type listTodosResponse struct {
	Items []todoView `json:"items"`
	Total int        `json:"total"`
}

// TodoCommand returns the todo subcommand group.
func TodoCommand() *cli.Command {
	return &cli.Command{
		Name:    "todo",
		Aliases: []string{"todos", "t"},
		Usage:   "Todo management commands",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List todos, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Filter by status: open, completed, all",
						Value: "all",
					},
				},
				Action: todoList,
			},
			{
				Name:      "get",
				Usage:     "Show one todo",
				ArgsUsage: "ID",
				Action:    todoGet,
			},
			{
				Name:      "add",
				Aliases:   []string{"create"},
				Usage:     "Create a todo",
				ArgsUsage: "TITLE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Todo description",
					},
					&cli.BoolFlag{
						Name:  "completed",
						Usage: "Create the todo already completed",
					},
				},
				Action: todoAdd,
			},
			{
				Name:      "update",
				Usage:     "Change fields of a todo",
				ArgsUsage: "ID",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Usage: "New title"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "New description"},
					&cli.BoolFlag{Name: "completed", Usage: "Set the completed state (--completed=false reopens)"},
				},
				Action: todoUpdate,
			},
			{
				Name:      "toggle",
				Usage:     "Flip the completed state of a todo",
				ArgsUsage: "ID",
				Action:    todoToggle,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a todo",
				ArgsUsage: "ID",
				Action:    todoDelete,
			},
		},
	}
}

func todoList(c *cli.Context) error {
	status := strings.ToLower(c.String("status"))
	switch status {
	case "all", "open", "completed":
	default:
		return fmt.Errorf("invalid status %q: must be open, completed or all", c.String("status"))
	}

	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	resp, err := client.Get(ctx, "/todos")
	if err != nil {
		return err
	}
	var result listTodosResponse
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	items := make([]todoView, 0, len(result.Items))
	for _, t := range result.Items {
		if status == "all" || (status == "completed") == t.Completed {
			items = append(items, t)
		}
	}
	return render(c, flags, items)
}

func todoGet(c *cli.Context) error {
	id, err := todoID(c)
	if err != nil {
		return err
	}
	return todoRequest(c, func(ctx context.Context, client *connection.HTTPClient) (*http.Response, error) {
		return client.Get(ctx, todoPath(id))
	})
}

func todoAdd(c *cli.Context) error {
	title := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if title == "" {
		return fmt.Errorf("title is required")
	}

	body := map[string]any{"title": title}
	if c.IsSet("description") {
		body["description"] = c.String("description")
	}
	if c.IsSet("completed") {
		body["completed"] = c.Bool("completed")
	}

	return todoRequest(c, func(ctx context.Context, client *connection.HTTPClient) (*http.Response, error) {
		return client.Post(ctx, "/todos", body)
	})
}

func todoUpdate(c *cli.Context) error {
	id, err := todoID(c)
	if err != nil {
		return err
	}

	body := map[string]any{}
	if c.IsSet("title") {
		body["title"] = c.String("title")
	}
	if c.IsSet("description") {
		body["description"] = c.String("description")
	}
	if c.IsSet("completed") {
		body["completed"] = c.Bool("completed")
	}
	if len(body) == 0 {
		return fmt.Errorf("nothing to update: set --title, --description or --completed")
	}

	return todoRequest(c, func(ctx context.Context, client *connection.HTTPClient) (*http.Response, error) {
		return client.Patch(ctx, todoPath(id), body)
	})
}

func todoToggle(c *cli.Context) error {
	id, err := todoID(c)
	if err != nil {
		return err
	}
	return todoRequest(c, func(ctx context.Context, client *connection.HTTPClient) (*http.Response, error) {
		return client.Patch(ctx, todoPath(id)+"/toggle", nil)
	})
}

func todoDelete(c *cli.Context) error {
	id, err := todoID(c)
	if err != nil {
		return err
	}

	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	resp, err := client.Delete(ctx, todoPath(id))
	if err != nil {
		return err
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "todo %d deleted\n", id)
	return nil
}

// todoRequest runs one request that answers with a single todo and renders
// it.
func todoRequest(c *cli.Context, call func(context.Context, *connection.HTTPClient) (*http.Response, error)) error {
	client, flags, err := EnsureConnected(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c, flags)
	defer cancel()

	resp, err := call(ctx, client)
	if err != nil {
		return err
	}
	var todo todoView
	if err := connection.ParseResponse(resp, &todo); err != nil {
		return err
	}
	return render(c, flags, todo)
}

// todoID parses the ID argument. The server validates the range.
func todoID(c *cli.Context) (int64, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one todo ID, got %d arguments", c.NArg())
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid todo ID %q", c.Args().First())
	}
	return id, nil
}

func todoPath(id int64) string {
	return "/todos/" + strconv.FormatInt(id, 10)
}
