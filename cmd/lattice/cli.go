package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/lattice-kb/lattice/internal/errors"
	"github.com/lattice-kb/lattice/internal/node"
	"github.com/lattice-kb/lattice/internal/ops"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *ops.Env) *cli.App {
	app := &cli.App{
		Name:    "lattice",
		Usage:   "Personal knowledge base",
		Version: Version,
		Commands: []*cli.Command{
			noteCmd(env),
			bookmarkCmd(env),
			tagCmd(env),
			cardCmd(env),
			getCmd(env),
			listCmd(env),
			updateCmd(env),
			deleteCmd(env),
			connectCmd(env),
			searchCmd(env),
			dueCmd(env),
			reviewCmd(env),
			publishCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// noteCmd creates the note command.
func noteCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "note",
		Usage: "Create a note (reads content from stdin when piped)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Required: true, Usage: "Note title"},
			&cli.StringFlag{Name: "content", Aliases: []string{"c"}, Usage: "Markdown body"},
			&cli.BoolFlag{Name: "public", Usage: "Include in the published site"},
		},
		Action: func(c *cli.Context) error {
			content := c.String("content")
			if content == "" && stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				content = text
			}

			output, err := ops.CreateNote(env, ops.CreateNoteInput{
				Title:    c.String("title"),
				Content:  content,
				IsPublic: c.Bool("public"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// bookmarkCmd creates the bookmark command.
func bookmarkCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "bookmark",
		Usage:     "Create a link",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Explicit title"},
			&cli.BoolFlag{Name: "crawl", Usage: "Fetch the page for searchable text"},
			&cli.BoolFlag{Name: "public", Usage: "Include in the published site"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("url is required"))
			}

			output, err := ops.CreateLink(c.Context, env, ops.CreateLinkInput{
				Title:    c.String("title"),
				URL:      c.Args().First(),
				Crawl:    c.Bool("crawl"),
				IsPublic: c.Bool("public"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// tagCmd creates the tag command.
func tagCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "tag",
		Usage:     "Create a tag",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "What the tag covers"},
			&cli.BoolFlag{Name: "public", Usage: "Include in the published site"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("name is required"))
			}

			output, err := ops.CreateTag(env, ops.CreateTagInput{
				Name:        c.Args().First(),
				Description: c.String("description"),
				IsPublic:    c.Bool("public"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// cardCmd creates the card command.
func cardCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "card",
		Usage: "Create a flashcard",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "front", Aliases: []string{"f"}, Required: true, Usage: "Question side"},
			&cli.StringFlag{Name: "back", Aliases: []string{"b"}, Required: true, Usage: "Answer side"},
			&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: "Node id the card was derived from"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.CreateCard(env, ops.CreateCardInput{
				Front:    c.String("front"),
				Back:     c.String("back"),
				SourceID: c.String("source"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// getCmd creates the get command.
func getCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Fetch a node by id",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "relations", Aliases: []string{"r"}, Usage: "Include neighbors"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}

			output, err := ops.GetNode(env, ops.GetNodeInput{
				ID:              c.Args().First(),
				ExpandRelations: c.Bool("relations"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List nodes",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Filter: note|link|tag|flashcard"},
			&cli.BoolFlag{Name: "public", Usage: "Only nodes marked public"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ListNodesInput{
				PublicOnly: c.Bool("public"),
			}
			if s := c.String("kind"); s != "" {
				kind := node.Kind(s)
				input.Kind = &kind
			}

			output, err := ops.ListNodes(env, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Patch a node; only supplied flags change",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New explicit title"},
			&cli.StringFlag{Name: "public", Usage: "New visibility: true|false"},
			&cli.StringFlag{Name: "content", Usage: "Note body"},
			&cli.StringFlag{Name: "url", Usage: "Link URL"},
			&cli.StringFlag{Name: "name", Usage: "Tag name"},
			&cli.StringFlag{Name: "description", Usage: "Tag description"},
			&cli.StringFlag{Name: "front", Usage: "Flashcard front"},
			&cli.StringFlag{Name: "back", Usage: "Flashcard back"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}

			input := ops.UpdateNodeInput{ID: c.Args().First()}
			if c.IsSet("title") {
				v := c.String("title")
				input.Title = &v
			}
			if c.IsSet("public") {
				v := c.String("public") == "true"
				input.IsPublic = &v
			}
			if c.IsSet("content") {
				v := c.String("content")
				input.Content = &v
			}
			if c.IsSet("url") {
				v := c.String("url")
				input.URL = &v
			}
			if c.IsSet("name") {
				v := c.String("name")
				input.Name = &v
			}
			if c.IsSet("description") {
				v := c.String("description")
				input.Description = &v
			}
			if c.IsSet("front") {
				v := c.String("front")
				input.Front = &v
			}
			if c.IsSet("back") {
				v := c.String("back")
				input.Back = &v
			}

			output, err := ops.UpdateNode(env, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a node and the edges touching it",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}

			output, err := ops.DeleteNode(env, ops.DeleteNodeInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// connectCmd creates the connect command.
func connectCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Create an edge between two nodes",
		ArgsUsage: "<from-id> <to-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Usage: "related_to|contains|tagged_with|derived_from"},
			&cli.StringFlag{Name: "bidirectional", Usage: "true|false"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("from-id and to-id are required"))
			}

			input := ops.LinkNodesInput{
				FromID: c.Args().Get(0),
				ToID:   c.Args().Get(1),
			}
			if c.IsSet("type") {
				t := node.RelType(c.String("type"))
				input.Type = &t
			}
			if c.IsSet("bidirectional") {
				v := c.String("bidirectional") == "true"
				input.Bidirectional = &v
			}

			output, err := ops.LinkNodes(env, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search across all nodes",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum hits"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.SearchNodes(env, ops.SearchNodesInput{
				Query: strings.Join(c.Args().Slice(), " "),
				Limit: c.Int("limit"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// dueCmd creates the due command.
func dueCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "due",
		Usage: "List flashcards due for review",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "as-of", Usage: "RFC 3339 instant; defaults to now"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum cards"},
		},
		Action: func(c *cli.Context) error {
			input := ops.DueCardsInput{Limit: c.Int("limit")}
			if s := c.String("as-of"); s != "" {
				t, err := time.Parse(time.RFC3339, s)
				if err != nil {
					return outputError(errors.NewInvalidRequest(fmt.Sprintf("as-of must be RFC 3339: %v", err)))
				}
				input.AsOf = &t
			}

			output, err := ops.DueCards(env, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// reviewCmd creates the review command.
func reviewCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "Record a review of a flashcard",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Required: true, Usage: "Recall quality 0-5"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}

			output, err := ops.ReviewCard(env, ops.ReviewCardInput{
				ID:      c.Args().First(),
				Quality: c.Int("quality"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// publishCmd creates the publish command.
func publishCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Render every public node into a static site",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "Output directory"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.PublishSite(env, ops.PublishSiteInput{Dir: c.String("dir")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
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
	if lerr, ok := err.(*errors.LatticeError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", lerr.Code, lerr.Message), 1)
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

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
