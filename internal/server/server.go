package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/jd-tailor/internal/keywords"
	"github.com/spigell/jd-tailor/internal/metrics"
	"github.com/spigell/jd-tailor/internal/pdftext"
	"github.com/spigell/jd-tailor/internal/tailor"
)

const (
	defaultMaxUploadMB     = 10
	defaultRateLimitPerMin = 30
	shutdownTimeout        = 10 * time.Second
)

// Config describes the HTTP surface.
type Config struct {
	Addr            string   `mapstructure:"addr" validate:"required"`
	CORSOrigins     []string `mapstructure:"cors-origins"`
	RateLimitPerMin int      `mapstructure:"rate-limit-per-min" validate:"gte=0"`
	MaxUploadMB     int64    `mapstructure:"max-upload-mb" validate:"gte=0"`
	MaxPages        int      `mapstructure:"max-pages" validate:"gte=0"`
}

// TaxonomyExtractor produces grouped keywords for a job description.
type TaxonomyExtractor interface {
	ExtractTaxonomy(ctx context.Context, jd string) keywords.TaxonomyResult
}

// ResumeRewriter tailors resume bullets to a job description.
type ResumeRewriter interface {
	Rewrite(ctx context.Context, jd, resume string, targetMatch int) tailor.Result
}

// TextExtractor turns uploaded document bytes into plain text.
type TextExtractor func(data []byte, maxPages int) (string, error)

type Server struct {
	cfg       Config
	extractor TaxonomyExtractor
	rewriter  ResumeRewriter
	metrics   *metrics.Metrics
	logger    *zap.Logger
	pdfText   TextExtractor

	vldOnce sync.Once
	vld     *validator.Validate
}

type Option func(*Server)

// WithTextExtractor replaces the PDF text extractor.
func WithTextExtractor(fn TextExtractor) Option {
	return func(s *Server) {
		if fn != nil {
			s.pdfText = fn
		}
	}
}

func New(cfg Config, extractor TaxonomyExtractor, rewriter ResumeRewriter, m *metrics.Metrics, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = defaultMaxUploadMB
	}
	if cfg.RateLimitPerMin <= 0 {
		cfg.RateLimitPerMin = defaultRateLimitPerMin
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = pdftext.DefaultMaxPages
	}

	s := &Server{
		cfg:       cfg,
		extractor: extractor,
		rewriter:  rewriter,
		metrics:   m,
		logger:    logger,
		pdfText:   pdftext.ExtractText,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) getValidator() *validator.Validate {
	s.vldOnce.Do(func() { s.vld = validator.New() })
	return s.vld
}

// Router builds the handler with middlewares and routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.accessLog)
	r.Use(s.metrics.HTTPMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   parseOrigins(s.cfg.CORSOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Group(func(wr chi.Router) {
		wr.Use(httprate.LimitByIP(s.cfg.RateLimitPerMin, time.Minute))
		wr.Post("/extract-jd", s.extractJDHandler())
		wr.Post("/extract-jd-text", s.extractJDTextHandler())
		wr.Post("/generate-boolean", s.generateBooleanHandler())
		wr.Post("/generate-pointers", s.generatePointersHandler())
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func parseOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		for _, p := range strings.Split(o, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
