package services

import (
	"net/url"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vsl-go/pkg/config"
)

// VisitorStorageFunc returns the server-side storage of one visitor.
type VisitorStorageFunc func(visitorID string) attribution.Storage

// AttributionService opens per-request attribution stores over the
// configured backend.
type AttributionService struct {
	backend    string
	ttl        time.Duration
	clock      attribution.Clock
	forVisitor VisitorStorageFunc
	logger     *logging.ChanneledLogger
}

// NewAttributionService creates the service. forVisitor may be nil when the
// cookie backend is used.
func NewAttributionService(backend string, ttl time.Duration, forVisitor VisitorStorageFunc, logger *logging.ChanneledLogger) *AttributionService {
	if backend == config.StorageSQL && forVisitor == nil {
		logger.Attribution().Warn("SQL attribution storage requested without a repository, using cookies")
		backend = config.StorageCookie
	}
	return &AttributionService{
		backend:    backend,
		ttl:        ttl,
		clock:      attribution.SystemClock{},
		forVisitor: forVisitor,
		logger:     logger,
	}
}

// WithClock overrides the clock stores are created with.
func (s *AttributionService) WithClock(clock attribution.Clock) *AttributionService {
	out := *s
	out.clock = clock
	return &out
}

// Backend names the storage backend in use.
func (s *AttributionService) Backend() string {
	return s.backend
}

// UsesCookies reports whether attribution lives in the visitor's cookies.
func (s *AttributionService) UsesCookies() bool {
	return s.backend != config.StorageSQL
}

// Open builds the request's store and runs the page-load initialization:
// any attribution on the query replaces what the visitor had stored.
// cookies is used when the cookie backend is configured.
func (s *AttributionService) Open(visitorID string, query url.Values, cookies attribution.Storage) *attribution.Store {
	storage := cookies
	if !s.UsesCookies() {
		storage = s.forVisitor(visitorID)
	}
	store := attribution.NewStore(storage, query,
		attribution.WithClock(s.clock),
		attribution.WithTTL(s.ttl),
		attribution.WithLogger(s.logger.WithVisitor(logging.ChannelAttribution, visitorID)),
	)
	store.Initialize()
	return store
}

// Snapshot is the resolved attribution as the API reports it.
type Snapshot struct {
	Attribution attribution.Set `json:"attribution"`
	Persisted   attribution.Set `json:"persisted"`
	ExpiresAt   *time.Time      `json:"expiresAt,omitempty"`
	Backend     string          `json:"backend"`
}

// Snapshot reports what store resolves to and when the stored part expires.
func (s *AttributionService) Snapshot(store *attribution.Store) Snapshot {
	snap := Snapshot{
		Attribution: store.ResolveAll(),
		Persisted:   store.ReadPersisted(),
		Backend:     s.backend,
	}
	if expiry, ok := store.Expiry(); ok {
		snap.ExpiresAt = &expiry
	}
	return snap
}

// AnnotateLink re-attaches the visitor's attribution to rawURL. overrides
// win over resolved values.
func (s *AttributionService) AnnotateLink(store *attribution.Store, rawURL string, overrides attribution.Set) string {
	return attribution.NewAnnotator(store).Annotate(rawURL, overrides)
}
