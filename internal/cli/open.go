package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/runnerr0/storycard/internal/idalloc"
	"github.com/runnerr0/storycard/internal/storage"
	"github.com/runnerr0/storycard/internal/story"
)

// openJSON is the JSON output structure for the open command.
type openJSON struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Actor       string   `json:"actor"`
	Action      string   `json:"action"`
	Achievement string   `json:"achievement"`
	Criteria    []string `json:"criteria"`
	DoneWhen    string   `json:"done_when"`
	Filename    string   `json:"filename"`
	Path        string   `json:"path"`
	CreatedAt   string   `json:"created_at"`
}

// Execute implements the go-flags Commander interface for OpenCommand.
func (c *OpenCommand) Execute(args []string) error {
	if c.ID == "" {
		return fmt.Errorf("--id is required for open command")
	}

	ctx := context.Background()

	e, err := openEnv(ctx, c.globals)
	if err != nil {
		return err
	}
	defer e.Close()

	return c.executeWithEnv(ctx, e)
}

// executeWithEnv prints one card record against a provided env (used by tests).
func (c *OpenCommand) executeWithEnv(ctx context.Context, e *env) error {
	if _, err := idalloc.ParseID(c.ID); err != nil {
		return err
	}

	card, err := e.store.GetCard(ctx, c.ID)
	if err != nil {
		if errors.Is(err, storage.ErrCardNotFound) {
			return fmt.Errorf("card not found: %s", c.ID)
		}
		return fmt.Errorf("get card: %w", err)
	}

	path := filepath.Join(e.dir.Path(), card.Filename)

	if c.Path {
		fmt.Println(path)
		return nil
	}

	criteria := story.CriteriaLines(card.Criteria)

	if c.globals != nil && c.globals.JSON {
		if criteria == nil {
			criteria = []string{}
		}
		return printJSON(openJSON{
			ID:          card.ID,
			Name:        card.Name,
			Actor:       card.Actor,
			Action:      card.Action,
			Achievement: card.Achievement,
			Criteria:    criteria,
			DoneWhen:    card.DoneWhen,
			Filename:    card.Filename,
			Path:        path,
			CreatedAt:   card.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	fmt.Printf("%s    %s\n", card.Name, card.ID)
	fmt.Println("---")
	fmt.Printf("As:       %s\n", card.Actor)
	fmt.Printf("I want:   %s\n", card.Action)
	fmt.Printf("So that:  %s\n", card.Achievement)
	fmt.Println("Acceptance criteria:")
	if len(criteria) == 0 {
		fmt.Println("  (none)")
	}
	for _, line := range criteria {
		fmt.Printf("  • %s\n", line)
	}
	fmt.Printf("Done when: %s\n", card.DoneWhen)
	fmt.Println("---")
	fmt.Printf("Created:  %s\n", card.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("File:     %s\n", path)

	return nil
}
