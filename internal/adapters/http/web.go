package web

import (
	"context"
	"net/http"
	"time"

	"eventtracker/internal/adapters/email"
	"eventtracker/internal/adapters/http/middleware"
	"eventtracker/internal/adapters/http/perf"
	accountStore "eventtracker/internal/adapters/storage/account"
	eventStore "eventtracker/internal/adapters/storage/event"
	"eventtracker/internal/application/draftform"
	"eventtracker/internal/application/orchestrators"
	"eventtracker/internal/domain/event"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore accountStore.Store
	EventStore   eventStore.Store
}

// Options carries the runtime settings the handlers need.
type Options struct {
	Categories     event.Categories
	Location       *time.Location
	CSRFKey        []byte
	Production     bool
	RateLimit      int64 // requests per second per client IP
	MaxImageBytes  int64
	SlowRequest    time.Duration
	ImageHost      orchestrators.ImageUploader // optional
	Sender         email.Sender                // optional
	NotifyTo       []string
	TrustedOrigins []string
	Health         func(ctx context.Context) error
	// Context bounds background work such as the session sweeper. Nil means
	// the sweeper runs for the life of the process.
	Context context.Context
}

// Global stores instance (set by NewMux)
var stores *Stores

// Global session store instance
var sessions *middleware.SessionStore

// Global draft form registry, keyed by session token
var drafts *draftform.Registry

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Runtime settings (set by NewMux)
var settings Options

// NewMux wires HTTP handlers for the app.
func NewMux(s *Stores, collector *perf.Collector, opts Options) http.Handler {
	mux := newRouter(s, collector, opts)
	middleware.SecureCookies = opts.Production

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	go sessions.RunSweeper(ctx, middleware.SweepInterval)

	// Applied outermost first: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.Production, opts.TrustedOrigins...),
		middleware.Auth(sessions),
		middleware.RateLimit(middleware.NewRateLimiter(opts.RateLimit)),
		middleware.Timing(collector, opts.SlowRequest),
	)
}

// newRouter resets the package state and registers every route.
func newRouter(s *Stores, collector *perf.Collector, opts Options) *http.ServeMux {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Categories.Len() == 0 {
		opts.Categories = event.DefaultCategories()
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = 5 << 20
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10
	}

	stores = s
	perfCollector = collector
	settings = opts
	sessions = middleware.NewSessionStore()
	drafts = draftform.NewRegistry(draftform.Deps{
		Auth:       draftform.AuthStatusFunc(middleware.IsAuthenticated),
		Navigator:  draftform.NavigatorFunc(navigate),
		Create:     createFromDraft,
		Categories: opts.Categories,
		Location:   opts.Location,
		Now:        func() time.Time { return timeNow() },
	})
	sessions.OnDelete(drafts.Drop)

	mux := http.NewServeMux()
	registerRoutes(mux)
	return mux
}
