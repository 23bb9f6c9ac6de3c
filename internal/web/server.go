// Package web serves the story card form, history gallery and card images.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"github.com/runnerr0/storycard/internal/cards"
	"github.com/runnerr0/storycard/internal/storage"
	"github.com/runnerr0/storycard/internal/story"
)

// DefaultMaxRequestSize caps request bodies at 16 MiB.
const DefaultMaxRequestSize = 16 << 20

//go:embed templates/*.html
var templateFS embed.FS

// Server is the HTTP front of the card service.
type Server struct {
	svc       *cards.Service
	logger    *zap.Logger
	maxBody   int64
	templates *template.Template
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMaxRequestSize caps request bodies at n bytes.
func WithMaxRequestSize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// New returns a Server backed by svc.
func New(svc *cards.Service, opts ...Option) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		svc:       svc,
		logger:    zap.NewNop(),
		maxBody:   DefaultMaxRequestSize,
		templates: tmpl,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Handler returns the routed handler wrapped in the request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /generate", s.handleGenerate)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("GET /test", s.handleExample)
	mux.HandleFunc("GET "+cards.URLPrefix+"{filename}", s.handleCard)

	return s.withRequestID(s.logRequests(s.limitBody(mux)))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderTemplate(w, r, "index.html", nil)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r, s.maxBody); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.svc.Generate(r.Context(), draftFromForm(r))
	if err != nil {
		var verr *story.ValidationError
		if errors.As(err, &verr) {
			http.Error(w, verr.Error(), http.StatusBadRequest)
			return
		}
		requestLogger(r, s.logger).Error("card generation failed", zap.Error(err))
		http.Error(w, "error generating card: "+err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, res.URL, http.StatusFound)
}

func (s *Server) handleExample(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.GenerateExample(r.Context())
	if err != nil {
		requestLogger(r, s.logger).Error("example generation failed", zap.Error(err))
		http.Error(w, "error generating example: "+err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, res.URL, http.StatusFound)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.History(r.Context(), 0)
	if err != nil {
		requestLogger(r, s.logger).Error("history listing failed", zap.Error(err))
		http.Error(w, "error reading history: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.renderTemplate(w, r, "history.html", struct{ Items []cards.HistoryItem }{items})
}

func (s *Server) handleCard(w http.ResponseWriter, r *http.Request) {
	img, err := s.svc.Open(r.PathValue("filename"))
	if err != nil {
		if errors.Is(err, storage.ErrCardNotFound) {
			http.NotFound(w, r)
			return
		}
		requestLogger(r, s.logger).Error("card open failed", zap.Error(err))
		http.Error(w, "error reading card: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer img.File.Close()

	w.Header().Set("Content-Type", "image/png")
	http.ServeContent(w, r, img.Filename, img.ModTime, img.File)
}

// renderTemplate executes into a buffer so template errors still produce a 500.
func (s *Server) renderTemplate(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		requestLogger(r, s.logger).Error("template failed", zap.String("template", name), zap.Error(err))
		http.Error(w, "error rendering page: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// parseForm accepts urlencoded and multipart bodies alike.
func parseForm(r *http.Request, maxMemory int64) error {
	if err := r.ParseForm(); err != nil {
		return err
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

// draftFromForm reads the story fields from a parsed form. Required fields
// not present at all are reported in Draft.Missing.
func draftFromForm(r *http.Request) story.Draft {
	form := r.PostForm
	d := story.Draft{
		Name:        form.Get("name"),
		Actor:       form.Get("actor"),
		Action:      form.Get("action"),
		Achievement: form.Get("achievement"),
		Criteria:    form.Get("criteria"),
		DoneWhen:    form.Get("done_when"),
	}
	for _, f := range story.RequiredFields {
		if !form.Has(f) {
			d.Missing = append(d.Missing, f)
		}
	}
	return d
}
