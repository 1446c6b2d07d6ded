package main

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/acrobot/internal/config"
	"github.com/hpungsan/acrobot/internal/detect"
	"github.com/hpungsan/acrobot/internal/errors"
	"github.com/hpungsan/acrobot/internal/mcp"
	"github.com/hpungsan/acrobot/internal/ops"
	"github.com/hpungsan/acrobot/internal/render"
	"github.com/hpungsan/acrobot/internal/web"
)

// maxStdinBytes bounds an expansion piped via stdin.
const maxStdinBytes = 64 * 1024

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, source ops.StreamSource) *cli.App {
	app := &cli.App{
		Name:    "acrobot",
		Usage:   "Acronym glossary for Reddit threads",
		Version: Version,
		Commands: []*cli.Command{
			addCmd(db),
			editCmd(db),
			rmCmd(db),
			listCmd(db),
			candidatesCmd(db, cfg, source),
			recentCmd(db, cfg, source),
			expandCmd(db),
			threadsCmd(db),
			exportCmd(db, cfg),
			importCmd(db, cfg),
			serveCmd(db, cfg, source),
			webCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// addCmd creates the add command.
func addCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Register an acronym (expansion from --value or stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "key", Aliases: []string{"k"}, Required: true, Usage: "Acronym key, e.g. IMO"},
			&cli.StringFlag{Name: "regex", Aliases: []string{"r"}, Usage: "Match pattern (default: word-bounded key)"},
			&cli.StringFlag{Name: "value", Usage: "Expansion text"},
		},
		Action: func(c *cli.Context) error {
			expansion := c.String("value")
			if expansion == "" {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("expansion must be given with --value or piped via stdin"))
				}
				text, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(err)
				}
				expansion = text
			}

			input := ops.AddInput{
				Key:       c.String("key"),
				Expansion: expansion,
			}
			if c.IsSet("regex") {
				pattern := c.String("regex")
				input.Pattern = &pattern
			}

			output, err := ops.Add(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// editCmd creates the edit command.
func editCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "edit",
		Usage: "Change an acronym's key, pattern or expansion",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "id", Required: true, Usage: "Acronym ID"},
			&cli.StringFlag{Name: "key", Aliases: []string{"k"}, Usage: "New key"},
			&cli.StringFlag{Name: "regex", Aliases: []string{"r"}, Usage: "New match pattern"},
			&cli.StringFlag{Name: "value", Usage: "New expansion"},
		},
		Action: func(c *cli.Context) error {
			input := ops.EditInput{ID: c.Int64("id")}
			if c.IsSet("key") {
				key := c.String("key")
				input.Key = &key
			}
			if c.IsSet("regex") {
				pattern := c.String("regex")
				input.Pattern = &pattern
			}
			if c.IsSet("value") {
				value := c.String("value")
				input.Expansion = &value
			}

			output, err := ops.Edit(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// rmCmd creates the rm command.
func rmCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "rm",
		Usage: "Remove an acronym and its recorded occurrences",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "id", Required: true, Usage: "Acronym ID"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Remove(c.Context, db, ops.RemoveInput{ID: c.Int64("id")})
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
		Usage: "List the vocabulary",
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// topicFlags are shared by commands that read the comment stream.
func topicFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "subreddit", Aliases: []string{"s"}, Usage: "Subreddit to read (default: config subreddit)"},
		&cli.IntFlag{Name: "fetch", Aliases: []string{"f"}, Usage: "Comments to read (default: config fetch_limit)"},
	}
}

// openStream opens the comment stream selected by topicFlags.
func openStream(c *cli.Context, cfg *config.Config, source ops.StreamSource) detect.Stream {
	topic := c.String("subreddit")
	if topic == "" {
		topic = cfg.Subreddit
	}
	limit := c.Int("fetch")
	if limit <= 0 {
		limit = cfg.FetchLimit
	}
	return source(topic, limit)
}

// candidatesCmd creates the candidates command.
func candidatesCmd(db *sql.DB, cfg *config.Config, source ops.StreamSource) *cli.Command {
	return &cli.Command{
		Name:  "candidates",
		Usage: "List acronym-shaped tokens in recent comments",
		Flags: append(topicFlags(),
			&cli.BoolFlag{Name: "unregistered", Aliases: []string{"u"}, Usage: "Hide tokens already in the vocabulary"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum candidates to return (0 = all)"},
		),
		Action: func(c *cli.Context) error {
			output, err := ops.Candidates(c.Context, db, openStream(c, cfg, source), ops.CandidatesInput{
				Unregistered: c.Bool("unregistered"),
				Limit:        c.Int("limit"),
			})
			return outputPartial(output, err)
		},
	}
}

// recentCmd creates the recent command.
func recentCmd(db *sql.DB, cfg *config.Config, source ops.StreamSource) *cli.Command {
	return &cli.Command{
		Name:  "recent",
		Usage: "Scan recent comments for known acronyms and record them",
		Flags: append(topicFlags(),
			&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "Report without recording"},
		),
		Action: func(c *cli.Context) error {
			output, err := ops.Scan(c.Context, db, openStream(c, cfg, source), ops.ScanInput{DryRun: c.Bool("dry-run")})
			return outputPartial(output, err)
		},
	}
}

// expandCmd creates the expand command.
func expandCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "expand",
		Usage: "List the acronyms recorded for a thread",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Required: true, Usage: "Thread ID (t3_ prefix optional)"},
			&cli.StringFlag{Name: "format", Value: "json", Usage: "Output format: json|markdown|html"},
		},
		Action: func(c *cli.Context) error {
			format := c.String("format")
			if format != "json" && format != "markdown" && format != "html" {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid format: %q (must be json, markdown, or html)", format)))
			}

			output, err := ops.Expand(c.Context, db, ops.ExpandInput{ThreadID: c.String("id")})
			if err != nil {
				return outputError(err)
			}

			reply := render.Reply(ops.Rows(output.Items))
			switch format {
			case "markdown":
				_, err = fmt.Fprint(os.Stdout, reply)
				return err
			case "html":
				html, err := render.HTML(reply)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				_, err = fmt.Fprint(os.Stdout, html)
				return err
			}
			return outputJSON(output)
		},
	}
}

// threadsCmd creates the threads command.
func threadsCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "threads",
		Usage: "List threads with recorded acronyms, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultThreadsLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Threads(c.Context, db, ops.ThreadsInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the vocabulary to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.acrobot/exports/<label>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "label", Usage: "File name prefix for the default path"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, db, cfg, ops.ExportInput{
				Path:  c.String("path"),
				Label: c.String("label"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import a vocabulary from a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Key collision mode: error|skip|replace"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, db, cfg, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			return outputPartial(output, err)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config, source ops.StreamSource) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			if err := mcp.Run(db, cfg, source, Version); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// webCmd creates the web command.
func webCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the read-only web UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8383, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			port := c.Int("port")
			if port < 1 || port > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid port: %d", port)))
			}
			srv, err := web.NewServer(db, cfg, Version, c.String("bind"), port)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if err := web.Run(c.Context, srv); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return outputError(errors.NewInternal(err))
			}
			return nil
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

// outputPartial prints whatever result an operation produced before failing, then the error.
func outputPartial[T any](output *T, err error) error {
	if output != nil {
		if jerr := outputJSON(output); jerr != nil {
			return jerr
		}
	}
	if err != nil {
		return outputError(err)
	}
	return nil
}

// outputError formats error for CLI.
func outputError(err error) error {
	var aErr *errors.AcroError
	if stderrors.As(err, &aErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", aErr.Code, aErr.Message), 1)
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

// readStdin reads at most limit bytes from stdin and trims surrounding whitespace.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if int64(len(data)) > limit {
		return "", errors.NewInvalidRequest(fmt.Sprintf("stdin exceeds %d bytes", limit))
	}
	return strings.TrimSpace(string(data)), nil
}
