package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/storycard/internal/story"
)

// generateJSON is the JSON output structure for the generate command.
type generateJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	Path      string `json:"path"`
	URL       string `json:"url"`
	Bytes     int    `json:"bytes"`
	CreatedAt string `json:"created_at"`
}

// Execute implements the go-flags Commander interface for GenerateCommand.
func (c *GenerateCommand) Execute(args []string) error {
	ctx := context.Background()

	e, err := openEnv(ctx, c.globals)
	if err != nil {
		return err
	}
	defer e.Close()

	return c.executeWithEnv(ctx, e)
}

// draft builds the story from flags.
func (c *GenerateCommand) draft() (story.Draft, error) {
	if c.Example {
		return story.Example(), nil
	}

	if len(c.Criteria) > 0 && c.CriteriaFile != "" {
		return story.Draft{}, fmt.Errorf("--criteria and --criteria-file are mutually exclusive")
	}

	criteria := strings.Join(c.Criteria, "\n")
	if c.CriteriaFile != "" {
		data, err := os.ReadFile(c.CriteriaFile)
		if err != nil {
			return story.Draft{}, fmt.Errorf("reading criteria file: %w", err)
		}
		criteria = string(data)
	}

	return story.Draft{
		Name:        c.Name,
		Actor:       c.Actor,
		Action:      c.Action,
		Achievement: c.Achievement,
		Criteria:    criteria,
		DoneWhen:    c.DoneWhen,
	}, nil
}

// executeWithEnv renders one card against a provided env (used by tests).
func (c *GenerateCommand) executeWithEnv(ctx context.Context, e *env) error {
	d, err := c.draft()
	if err != nil {
		return err
	}

	res, err := e.svc.Generate(ctx, d)
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(generateJSON{
			ID:        res.Card.ID,
			Name:      res.Card.Name,
			Filename:  res.Card.Filename,
			Path:      res.Path,
			URL:       res.URL,
			Bytes:     res.Bytes,
			CreatedAt: res.Card.CreatedAt.Format(time.RFC3339),
		})
	}

	fmt.Printf("Generated %s (%s)\n", res.Card.ID, res.Card.CreatedAt.Format(time.RFC3339))
	fmt.Printf("  Name: %s\n", res.Card.Name)
	fmt.Printf("  File: %s (%s)\n", res.Path, formatBytes(int64(res.Bytes)))
	fmt.Printf("  URL:  %s\n", res.URL)

	return nil
}
