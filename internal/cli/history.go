package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/runnerr0/storycard/internal/cards"
)

// historyItemJSON is one entry of the history command's JSON output.
type historyItemJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
	Size      int64  `json:"size"`
}

// Execute implements the go-flags Commander interface for HistoryCommand.
func (c *HistoryCommand) Execute(args []string) error {
	ctx := context.Background()

	e, err := openEnv(ctx, c.globals)
	if err != nil {
		return err
	}
	defer e.Close()

	return c.executeWithEnv(ctx, e)
}

// executeWithEnv lists cards against a provided env (used by tests).
func (c *HistoryCommand) executeWithEnv(ctx context.Context, e *env) error {
	if c.Limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	items, err := e.svc.History(ctx, c.Limit)
	if err != nil {
		return fmt.Errorf("reading history: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return c.printItemsJSON(items)
	}
	return c.printItemsHuman(items)
}

func (c *HistoryCommand) printItemsHuman(items []cards.HistoryItem) error {
	if len(items) == 0 {
		fmt.Println("No cards generated yet.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tNAME\tFILE")
	for _, it := range items {
		name := it.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ID, it.CreatedAt.Format("2006-01-02 15:04:05"), name, it.Filename)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d card(s)\n", len(items))
	return nil
}

func (c *HistoryCommand) printItemsJSON(items []cards.HistoryItem) error {
	out := make([]historyItemJSON, len(items))
	for i, it := range items {
		out[i] = historyItemJSON{
			ID:        it.ID,
			Name:      it.Name,
			Filename:  it.Filename,
			URL:       it.URL,
			CreatedAt: it.CreatedAt.Format(time.RFC3339),
			Size:      it.Size,
		}
	}
	return printJSON(out)
}
