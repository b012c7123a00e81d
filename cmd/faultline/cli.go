package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pvann/faultline/internal/config"
	"github.com/pvann/faultline/internal/errors"
	"github.com/pvann/faultline/internal/ops"
	"github.com/pvann/faultline/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "faultline",
		Usage:   "Stack frame diagnostic composer",
		Version: Version,
		Commands: []*cli.Command{
			ingestCmd(db, cfg),
			fetchCmd(db),
			listCmd(db),
			framesCmd(db),
			renderCmd(db, cfg),
			resolveCmd(db, cfg),
			deleteCmd(db),
			purgeCmd(db),
			grantCmd(db, cfg),
			revokeCmd(db, cfg),
			capsCmd(db, cfg),
			exportCmd(db),
			importCmd(db),
			webCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// ingestCmd creates the ingest command.
func ingestCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Ingest an event (reads event JSON from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Read event JSON from a file instead of stdin"},
		},
		Action: func(c *cli.Context) error {
			var payload []byte
			if path := c.String("file"); path != "" {
				data, err := os.ReadFile(path)
				if err != nil {
					return outputError(errors.NewInvalidRequest(fmt.Sprintf("cannot read %s: %v", path, err)))
				}
				payload = data
			} else {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("event JSON must be piped via stdin or given with --file"))
				}
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				payload = data
			}

			output, err := ops.Ingest(c.Context, db, cfg, ops.IngestInput{EventJSON: payload})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a stored event by ID",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Fetch(c.Context, db, ops.FetchInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored events",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "platform", Aliases: []string{"p"}, Usage: "Filter by platform"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, db, ops.ListInput{
				Platform: c.String("platform"),
				Limit:    c.Int("limit"),
				Offset:   c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// framesCmd creates the frames command.
func framesCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "frames",
		Usage:     "List an event's stack frames with per-frame panel availability",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Frames(c.Context, db, ops.FramesInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// renderCmd creates the render command.
func renderCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Compose and render the diagnostic panels for one frame",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "frame", Aliases: []string{"f"}, Value: 0, Usage: "Frame index"},
			&cli.BoolFlag{Name: "expanded", Aliases: []string{"e"}, Usage: "Show the full context window"},
			&cli.BoolFlag{Name: "no-components", Usage: "Compose as if no UI component registry is attached"},
			&cli.StringFlag{Name: "format", Value: "json", Usage: "Output format: json|html"},
		},
		Action: func(c *cli.Context) error {
			format := c.String("format")
			if format != "json" && format != "html" {
				return outputError(errors.NewInvalidRequest("format must be json or html"))
			}

			output, err := ops.RenderFrame(c.Context, db, cfg, ops.RenderFrameInput{
				ID:            c.Args().First(),
				FrameIndex:    c.Int("frame"),
				Expanded:      c.Bool("expanded"),
				HasComponents: !c.Bool("no-components"),
			})
			if err != nil {
				return outputError(err)
			}

			if format == "html" {
				for _, p := range output.Rendered {
					if p.Omitted || p.HTML == "" {
						continue
					}
					fmt.Println(string(p.HTML))
				}
				return nil
			}

			return outputJSON(output)
		},
	}
}

// resolveCmd creates the resolve command.
func resolveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve and cache source links for one frame",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "frame", Aliases: []string{"f"}, Value: 0, Usage: "Frame index"},
			&cli.BoolFlag{Name: "expanded", Aliases: []string{"e"}, Usage: "Resolve links for the full context window"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ResolveLinks(c.Context, db, cfg, ops.ResolveLinksInput{
				ID:            c.Args().First(),
				FrameIndex:    c.Int("frame"),
				Expanded:      c.Bool("expanded"),
				HasComponents: true,
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a stored event",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(c.Context, db, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete events older than a given age",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Required: true, Usage: "Purge events received more than N days ago (e.g., 30d)"},
		},
		Action: func(c *cli.Context) error {
			days, err := parseDuration(c.String("older-than"))
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			output, err := ops.Purge(c.Context, db, ops.PurgeInput{OlderThanDays: days})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// grantCmd creates the grant command.
func grantCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "grant",
		Usage:     "Grant a capability feature to the configured org",
		ArgsUsage: "<feature>",
		Action: func(c *cli.Context) error {
			output, err := ops.Grant(c.Context, db, cfg, ops.GrantInput{Feature: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// revokeCmd creates the revoke command.
func revokeCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "revoke",
		Usage:     "Revoke a capability feature from the configured org",
		ArgsUsage: "<feature>",
		Action: func(c *cli.Context) error {
			output, err := ops.Revoke(c.Context, db, cfg, ops.RevokeInput{Feature: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// capsCmd creates the caps command.
func capsCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "caps",
		Usage: "List the capability features granted to the configured org",
		Action: func(c *cli.Context) error {
			output, err := ops.Capabilities(c.Context, db, cfg)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export stored events to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Export file path (default: ~/.faultline/exports/<platform>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "platform", Aliases: []string{"p"}, Usage: "Filter by platform"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, db, ops.ExportInput{
				Path:     c.String("path"),
				Platform: c.String("platform"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import events from a JSONL export file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, db, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// webCmd creates the web command.
func webCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start the local web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8417, Usage: "Listen port"},
		},
		Action: func(c *cli.Context) error {
			srv := web.NewServer(db, cfg, Version, c.String("bind"), c.Int("port"))
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if flErr, ok := err.(*errors.FaultlineError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", flErr.Code, flErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// parseDuration parses "30d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days <= 0 {
			return 0, fmt.Errorf("duration must be positive")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 30d")
}
