package attribution

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"time"
)

const (
	// ParamsEntry holds the serialized attribution mapping.
	ParamsEntry = "utm_params"
	// ExpiryEntry holds the absolute expiry in epoch milliseconds.
	ExpiryEntry = "utm_expiry"

	// DefaultTTL is how long a capture stays valid after it was persisted.
	DefaultTTL = 30 * 24 * time.Hour
)

// Resolver yields the attribution that applies to the current request.
type Resolver interface {
	ResolveAll() Set
}

// Store captures, persists and resolves attribution for one request.
// It never returns storage failures to callers; they are logged and the
// operation degrades to a no-op or an empty result.
type Store struct {
	storage Storage
	query   url.Values
	clock   Clock
	ttl     time.Duration
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock.
func WithClock(clock Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// WithTTL overrides the persistence window.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger sets the logger degraded operations are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a store over storage for a request carrying query.
func NewStore(storage Storage, query url.Values, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		query:   query,
		clock:   SystemClock{},
		ttl:     DefaultTTL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.query == nil {
		s.query = url.Values{}
	}
	return s
}

// Capture returns the attribution carried by the current request.
func (s *Store) Capture() Set {
	return Capture(s.query)
}

// Persist replaces the stored attribution with set and restarts the TTL.
// An empty set leaves the stored attribution untouched.
func (s *Store) Persist(set Set) {
	if len(set) == 0 {
		return
	}

	data, err := json.Marshal(set)
	if err != nil {
		s.logger.Error("Failed to encode attribution", "error", err.Error())
		return
	}

	expiry := s.clock.Now().Add(s.ttl).UnixMilli()
	entries := map[string]string{
		ParamsEntry: string(data),
		ExpiryEntry: strconv.FormatInt(expiry, 10),
	}

	if batch, ok := s.storage.(BatchWriter); ok {
		if err := batch.SetEntries(entries); err != nil {
			s.logger.Warn("Attribution persist skipped", "error", err.Error())
		}
		return
	}

	if err := s.storage.Set(ParamsEntry, entries[ParamsEntry]); err != nil {
		s.logger.Warn("Attribution persist skipped", "error", err.Error())
		return
	}
	if err := s.storage.Set(ExpiryEntry, entries[ExpiryEntry]); err != nil {
		// params must never outlive a write without their matching expiry
		s.logger.Warn("Attribution expiry write failed", "error", err.Error())
		s.clear()
	}
}

// ReadPersisted returns the stored attribution. Missing, expired or
// malformed records are cleared and yield an empty set.
func (s *Store) ReadPersisted() Set {
	rawExpiry, ok, err := s.storage.Get(ExpiryEntry)
	if err != nil {
		return s.readFailed(ExpiryEntry, err)
	}
	if !ok || rawExpiry == "" {
		s.clear()
		return Set{}
	}

	expiry, err := strconv.ParseInt(rawExpiry, 10, 64)
	if err != nil {
		s.logger.Warn("Malformed attribution expiry", "value", rawExpiry, "error", err.Error())
		s.clear()
		return Set{}
	}

	if s.clock.Now().UnixMilli() > expiry {
		s.logger.Debug("Attribution expired", "expiry", expiry)
		s.clear()
		return Set{}
	}

	rawParams, ok, err := s.storage.Get(ParamsEntry)
	if err != nil {
		return s.readFailed(ParamsEntry, err)
	}
	if !ok || rawParams == "" {
		s.clear()
		return Set{}
	}

	var decoded map[string]string
	if err := json.Unmarshal([]byte(rawParams), &decoded); err != nil {
		s.logger.Warn("Malformed attribution params", "error", err.Error())
		s.clear()
		return Set{}
	}

	return sanitize(decoded)
}

// ResolveAll merges stored attribution with the current request's; current
// values win on collision.
func (s *Store) ResolveAll() Set {
	return s.ReadPersisted().Merge(s.Capture())
}

// Initialize persists the current request's attribution. Run it once per
// page load before any other read.
func (s *Store) Initialize() {
	s.Persist(s.Capture())
}

// Expiry returns the stored expiry, if any, without validating it.
func (s *Store) Expiry() (time.Time, bool) {
	raw, ok, err := s.storage.Get(ExpiryEntry)
	if err != nil || !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func (s *Store) readFailed(entry string, err error) Set {
	if errors.Is(err, ErrMalformedEntry) {
		s.logger.Warn("Malformed attribution entry", "entry", entry, "error", err.Error())
		s.clear()
		return Set{}
	}
	s.logger.Warn("Attribution read skipped", "entry", entry, "error", err.Error())
	return Set{}
}

func (s *Store) clear() {
	for _, name := range []string{ParamsEntry, ExpiryEntry} {
		if err := s.storage.Remove(name); err != nil {
			s.logger.Warn("Attribution clear failed", "entry", name, "error", err.Error())
		}
	}
}
