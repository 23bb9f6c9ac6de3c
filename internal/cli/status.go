package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/storycard/internal/idalloc"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version        string `json:"version"`
	AllocatorMode  string `json:"allocator_mode"`
	Locking        bool   `json:"locking"`
	CounterPath    string `json:"counter_path,omitempty"`
	LastID         string `json:"last_id,omitempty"`
	Counter        int64  `json:"counter"`
	CardsDir       string `json:"cards_dir"`
	CardFiles      int    `json:"card_files"`
	CardBytes      int64  `json:"card_bytes"`
	IndexPath      string `json:"index_path"`
	IndexSizeBytes int64  `json:"index_size_bytes"`
	IndexedCards   int64  `json:"indexed_cards"`
	OldestCard     string `json:"oldest_card,omitempty"`
	NewestCard     string `json:"newest_card,omitempty"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	ctx := context.Background()

	e, err := openEnv(ctx, c.globals)
	if err != nil {
		return err
	}
	defer e.Close()

	return c.executeWithEnv(ctx, e)
}

// executeWithEnv runs status against a provided env (for testing).
func (c *StatusCommand) executeWithEnv(ctx context.Context, e *env) error {
	stats, err := e.store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	count, err := e.currentCount(ctx)
	if err != nil {
		return fmt.Errorf("read counter: %w", err)
	}

	files, size, err := e.dir.Usage()
	if err != nil {
		return fmt.Errorf("card directory usage: %w", err)
	}

	out := statusJSON{
		Version:        c.version,
		AllocatorMode:  e.cfg.Allocator.Mode,
		Locking:        e.cfg.Allocator.Locking,
		Counter:        count,
		CardsDir:       e.dir.Path(),
		CardFiles:      files,
		CardBytes:      size,
		IndexPath:      e.indexPath,
		IndexSizeBytes: fileSize(e.indexPath),
		IndexedCards:   stats.TotalCards,
	}
	if out.AllocatorMode == "" || out.AllocatorMode == "file" {
		out.CounterPath = e.counterPath
	}
	if count > 0 {
		out.LastID = idalloc.FormatID(count)
	}
	if stats.TotalCards > 0 {
		out.OldestCard = stats.OldestCard.UTC().Format(time.RFC3339)
		out.NewestCard = stats.NewestCard.UTC().Format(time.RFC3339)
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(out)
	}

	fmt.Println("Storycard Status")
	fmt.Println("================")
	fmt.Printf("Version:       %s\n", out.Version)
	if out.CounterPath != "" {
		fmt.Printf("Allocator:     %s (locking %s)\n", out.AllocatorMode, onOff(out.Locking))
		fmt.Printf("Counter file:  %s\n", out.CounterPath)
	} else {
		fmt.Printf("Allocator:     %s\n", out.AllocatorMode)
	}
	if out.LastID != "" {
		fmt.Printf("Counter:       %s (last id %s)\n", formatNumber(count), out.LastID)
	} else {
		fmt.Printf("Counter:       %s\n", formatNumber(count))
	}
	fmt.Printf("Cards:         %s in %s (%s)\n", formatNumber(int64(files)), out.CardsDir, formatBytes(size))
	fmt.Printf("Index:         %s (%s)\n", out.IndexPath, formatBytes(out.IndexSizeBytes))
	fmt.Printf("Indexed:       %s\n", formatNumber(stats.TotalCards))
	if stats.TotalCards > 0 {
		fmt.Printf("Oldest:        %s\n", stats.OldestCard.Local().Format("2006-01-02 15:04"))
		fmt.Printf("Newest:        %s\n", stats.NewestCard.Local().Format("2006-01-02 15:04"))
	}

	return nil
}

// fileSize returns the size of path, or 0 if it cannot be stat'ed.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
