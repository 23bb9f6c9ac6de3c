package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/runnerr0/storycard/internal/cards"
	"github.com/runnerr0/storycard/internal/config"
	"github.com/runnerr0/storycard/internal/idalloc"
	"github.com/runnerr0/storycard/internal/logging"
	"github.com/runnerr0/storycard/internal/render"
	"github.com/runnerr0/storycard/internal/storage"
)

// counterName is the SQLite counter row used by the sqlite allocator.
const counterName = "story"

// env bundles the configured card service and the resources behind it.
type env struct {
	cfg    *config.Config
	logger *zap.Logger

	db    *sql.DB
	store *storage.SQLiteStore
	dir   *storage.CardDir
	alloc idalloc.Allocator
	svc   *cards.Service

	indexPath   string
	counterPath string
}

// loadConfig reads --config when given, creating it with defaults if it
// does not exist. Otherwise storycard.yaml in the working directory is used
// when present.
func loadConfig(g *GlobalFlags) (*config.Config, error) {
	if g != nil && g.Config != "" {
		return config.LoadOrCreateAt(g.Config)
	}
	return config.LoadDefault()
}

// openEnv loads config, builds the logger and opens storage.
func openEnv(ctx context.Context, g *GlobalFlags) (*env, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	verbose := g != nil && g.Verbose
	logger, err := logging.New(cfg.Logging, verbose)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	e, err := newEnv(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return e, nil
}

// newEnv wires the card service from cfg.
func newEnv(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*env, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	indexPath, err := cfg.IndexPath()
	if err != nil {
		return nil, err
	}
	cardsDir, err := cfg.CardsDir()
	if err != nil {
		return nil, err
	}
	counterPath, err := cfg.CounterPath()
	if err != nil {
		return nil, err
	}

	store, db, err := storage.Open(ctx, indexPath)
	if err != nil {
		return nil, fmt.Errorf("open card index: %w", err)
	}

	alloc, err := newAllocator(cfg.Allocator, counterPath, store, logger)
	if err != nil {
		store.Close()
		db.Close()
		return nil, err
	}

	renderer := render.New(render.Options{
		FontPath:  cfg.Render.FontPath,
		TitleSize: cfg.Render.TitleSize,
		BodySize:  cfg.Render.BodySize,
	}, logger)
	dir := storage.NewCardDir(cardsDir)

	svc := cards.NewService(alloc, renderer, dir,
		cards.WithIndex(store),
		cards.WithLogger(logger),
	)

	return &env{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		store:       store,
		dir:         dir,
		alloc:       alloc,
		svc:         svc,
		indexPath:   indexPath,
		counterPath: counterPath,
	}, nil
}

// Close releases the index and flushes the logger.
func (e *env) Close() error {
	e.store.Close()
	err := e.db.Close()
	_ = e.logger.Sync()
	return err
}

func newAllocator(cfg config.AllocatorConfig, counterPath string, store *storage.SQLiteStore, logger *zap.Logger) (idalloc.Allocator, error) {
	switch cfg.Mode {
	case "", "file":
		return idalloc.NewFileAllocator(counterPath,
			idalloc.WithLocking(cfg.Locking),
			idalloc.WithLogger(logger),
		), nil
	case "sqlite":
		return idalloc.NewCounterAllocator(store, counterName), nil
	case "memory":
		return idalloc.NewMemoryAllocator(0), nil
	default:
		return nil, fmt.Errorf("unknown allocator mode %q", cfg.Mode)
	}
}

// currentCount reports the last issued story number without allocating.
func (e *env) currentCount(ctx context.Context) (int64, error) {
	switch a := e.alloc.(type) {
	case *idalloc.FileAllocator:
		return a.Current(), nil
	case *idalloc.CounterAllocator:
		return e.store.CounterValue(ctx, counterName)
	default:
		return 0, nil
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatNumber formats an int64 with comma separators.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
