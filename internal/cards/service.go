// Package cards generates story cards and assembles the card history.
package cards

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/storycard/internal/idalloc"
	"github.com/runnerr0/storycard/internal/render"
	"github.com/runnerr0/storycard/internal/storage"
	"github.com/runnerr0/storycard/internal/story"
)

// URLPrefix is where card images are served from.
const URLPrefix = "/static/history_user/"

// Index records and looks up structured card records.
type Index interface {
	RecordCard(ctx context.Context, card *storage.Card) error
	GetCardByFilename(ctx context.Context, filename string) (*storage.Card, error)
	ListCards(ctx context.Context, limit int) ([]storage.Card, error)
}

// Service composes id allocation, rendering and storage.
type Service struct {
	alloc    idalloc.Allocator
	renderer *render.Renderer
	dir      *storage.CardDir
	index    Index
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithIndex records every generated card in index and uses it to enrich
// the history with story names.
func WithIndex(index Index) Option {
	return func(s *Service) { s.index = index }
}

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source used to name card files.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService builds a Service writing images into dir.
func NewService(alloc idalloc.Allocator, renderer *render.Renderer, dir *storage.CardDir, opts ...Option) *Service {
	s := &Service{
		alloc:    alloc,
		renderer: renderer,
		dir:      dir,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result describes a newly generated card.
type Result struct {
	Card  storage.Card
	Path  string
	URL   string
	Bytes int
}

// Generate validates draft, allocates an id, renders the card and stores
// it. Validation failures are returned as *story.ValidationError before an
// id is consumed. Once allocated, an id is never reused, even if rendering
// or storage then fails.
func (s *Service) Generate(ctx context.Context, draft story.Draft) (*Result, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	id, err := s.alloc.Allocate(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate story id: %w", err)
	}
	rec := draft.WithID(id)

	img, layout, err := s.renderer.Render(rec)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", id, err)
	}

	var buf bytes.Buffer
	if err := render.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("render %s: %w", id, err)
	}

	created := s.now()
	card := storage.Card{
		ID:          id,
		Filename:    storage.CardFilename(id, created),
		Name:        rec.Name,
		Actor:       rec.Actor,
		Action:      rec.Action,
		Achievement: rec.Achievement,
		Criteria:    rec.Criteria,
		DoneWhen:    rec.DoneWhen,
		CreatedAt:   created,
	}

	if err := s.dir.Write(card.Filename, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("store %s: %w", id, err)
	}

	if s.index != nil {
		if err := s.index.RecordCard(ctx, &card); err != nil {
			return nil, fmt.Errorf("index %s: %w", id, err)
		}
	}

	if layout.EndY > render.Height {
		s.logger.Debug("card content clipped", zap.String("id", id), zap.Int("end_y", layout.EndY))
	}
	s.logger.Info("card generated",
		zap.String("id", id),
		zap.String("filename", card.Filename),
		zap.Int("bytes", buf.Len()),
		zap.Int("criteria", len(layout.Bullets)),
		zap.Bool("placeholder", layout.Placeholder),
	)

	return &Result{
		Card:  card,
		Path:  filepath.Join(s.dir.Path(), card.Filename),
		URL:   URLPrefix + card.Filename,
		Bytes: buf.Len(),
	}, nil
}

// GenerateExample generates the fixed example story.
func (s *Service) GenerateExample(ctx context.Context) (*Result, error) {
	return s.Generate(ctx, story.Example())
}

// HistoryItem is one card in the history gallery.
type HistoryItem struct {
	ID        string
	Name      string
	Filename  string
	URL       string
	CreatedAt time.Time
	Size      int64
}

// History lists stored cards, most recently modified first. Story names
// come from the index when one is configured and has the card.
func (s *Service) History(ctx context.Context, limit int) ([]HistoryItem, error) {
	entries, err := s.dir.List()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	items := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		item := HistoryItem{
			ID:        e.ID,
			Filename:  e.Filename,
			URL:       URLPrefix + e.Filename,
			CreatedAt: e.CreatedAt,
			Size:      e.Size,
		}
		if s.index != nil {
			card, err := s.index.GetCardByFilename(ctx, e.Filename)
			switch {
			case err == nil:
				item.Name = card.Name
			case errors.Is(err, storage.ErrCardNotFound):
			default:
				s.logger.Warn("card index lookup failed", zap.String("filename", e.Filename), zap.Error(err))
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// Open returns the image for filename. Missing files yield
// storage.ErrCardNotFound.
func (s *Service) Open(filename string) (*Image, error) {
	f, info, err := s.dir.Open(filename)
	if err != nil {
		return nil, err
	}
	return &Image{File: f, Filename: info.Name(), ModTime: info.ModTime()}, nil
}
