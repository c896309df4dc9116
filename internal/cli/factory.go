package cli

import (
	"encoding/hex"
	"fmt"
	"log/slog"

	backend "github.com/redis/go-redis/v9"

	"github.com/softgrove/vellum/pkg/adapters/file"
	"github.com/softgrove/vellum/pkg/adapters/openai"
	"github.com/softgrove/vellum/pkg/adapters/process"
	redisadapter "github.com/softgrove/vellum/pkg/adapters/redis"
	"github.com/softgrove/vellum/pkg/observability"
	"github.com/softgrove/vellum/pkg/persistence/middleware"
	"github.com/softgrove/vellum/pkg/ports"
	"github.com/softgrove/vellum/pkg/session"
)

// Stores bundles the persistence adapters the options select.
type Stores struct {
	States   ports.StateStore
	Chapters ports.ChapterStore
	Links    ports.LinkStore

	// Locker guards multi-process access; nil for the file backend,
	// where sessions are per-machine anyway.
	Locker ports.SessionLocker

	closer func() error
}

// Close releases backend connections, if any.
func (s *Stores) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// BuildStores creates the persistence adapters. World state goes to
// Redis when configured, to disk otherwise; chapters and links are
// always files so the saves stay greppable. Masking and encryption
// middleware wrap the state store when their options are set.
func BuildStores(opts Options, logger *slog.Logger) (*Stores, error) {
	stores := &Stores{
		Chapters: file.NewChapterLog(opts.SavesDir),
		Links:    file.NewLinkIndex(opts.SavesDir),
	}

	if opts.RedisAddr == "" {
		stores.States = file.NewStateStore(opts.SavesDir, file.WithLogger(logger))
	} else {
		client := backend.NewClient(&backend.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		stores.States = redisadapter.NewFromClient(client)
		stores.Locker = redisadapter.NewLocker(client, "vellum:session:")
		stores.closer = client.Close
	}

	mws, err := buildStateMiddleware(opts)
	if err != nil {
		return nil, err
	}
	stores.States = middleware.Chain(stores.States, mws...)
	return stores, nil
}

func buildStateMiddleware(opts Options) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware

	if len(opts.MaskPatterns) > 0 {
		mws = append(mws, middleware.NewMaskingMiddleware(opts.MaskPatterns))
	}

	if opts.EncryptionKey != "" {
		active, err := decodeKey(opts.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("VELLUM_ENCRYPTION_KEY: %w", err)
		}
		fallbacks := make([][]byte, 0, len(opts.EncryptionFallbacks))
		for _, raw := range opts.EncryptionFallbacks {
			key, err := decodeKey(raw)
			if err != nil {
				return nil, fmt.Errorf("VELLUM_ENCRYPTION_FALLBACK_KEYS: %w", err)
			}
			fallbacks = append(fallbacks, key)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallbacks,
		}))
	}

	return mws, nil
}

func decodeKey(raw string) ([]byte, error) {
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// BuildGenerator creates the generation client, instrumented so the
// /metrics endpoint reports model latency and failures. A configured
// local command takes precedence over the HTTP client.
func BuildGenerator(opts Options) ports.Generator {
	var gen ports.Generator
	if opts.GeneratorCmd != "" {
		gen = process.New(opts.GeneratorCmd, process.WithArgs(opts.GeneratorArgs...))
	} else {
		gen = openai.New(opts.APIKey,
			openai.WithBaseURL(opts.APIBase),
			openai.WithModel(opts.Model),
		)
	}
	return observability.InstrumentGenerator(gen)
}

// BuildController assembles a session controller from the options.
func BuildController(opts Options, stores *Stores, logger *slog.Logger) *session.Controller {
	return session.NewController(
		opts.SessionConfig(),
		stores.States,
		stores.Chapters,
		BuildGenerator(opts),
		session.WithLinkStore(stores.Links),
		session.WithLogger(logger),
	)
}
