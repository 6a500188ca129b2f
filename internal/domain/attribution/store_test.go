package attribution

import (
	"errors"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// failingStorage simulates disabled storage or an exceeded quota.
type failingStorage struct{ err error }

func (f failingStorage) Get(string) (string, bool, error) { return "", false, f.err }
func (f failingStorage) Set(string, string) error         { return f.err }
func (f failingStorage) Remove(string) error              { return f.err }

// sequentialStorage hides MemoryStorage's batch writer and can fail one entry.
type sequentialStorage struct {
	inner   *MemoryStorage
	failSet string
}

func (s *sequentialStorage) Get(name string) (string, bool, error) { return s.inner.Get(name) }
func (s *sequentialStorage) Remove(name string) error              { return s.inner.Remove(name) }
func (s *sequentialStorage) Set(name, value string) error {
	if name == s.failSet {
		return ErrStorageUnavailable
	}
	return s.inner.Set(name, value)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, storage Storage, rawQuery string, clock Clock) *Store {
	t.Helper()
	query, err := url.ParseQuery(rawQuery)
	require.NoError(t, err)
	return NewStore(storage, query, WithClock(clock), WithLogger(quietLogger()))
}

func TestCapture(t *testing.T) {
	t.Run("keeps only recognized non-empty keys", func(t *testing.T) {
		query, _ := url.ParseQuery("utm_source=ig&utm_medium=&foo=bar&gclid=abc&utm_campaign=sale")

		got := Capture(query)

		assert.Equal(t, Set{KeySource: "ig", KeyGCLID: "abc", KeyCampaign: "sale"}, got)
	})

	t.Run("empty query yields empty set", func(t *testing.T) {
		assert.Empty(t, Capture(url.Values{}))
	})

	t.Run("capture has no side effect on storage", func(t *testing.T) {
		storage := NewMemoryStorage()
		store := newTestStore(t, storage, "utm_source=fb", &fakeClock{now: time.Now()})

		store.Capture()

		assert.Equal(t, 0, storage.Len())
	})
}

func TestStore_Persist(t *testing.T) {
	t.Run("writes params and expiry thirty days out", func(t *testing.T) {
		clock := &fakeClock{now: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
		storage := NewMemoryStorage()
		store := newTestStore(t, storage, "", clock)

		store.Persist(Set{KeySource: "ig"})

		raw, ok, err := storage.Get(ExpiryEntry)
		require.NoError(t, err)
		require.True(t, ok)
		expiry, err := strconv.ParseInt(raw, 10, 64)
		require.NoError(t, err)
		assert.Equal(t, clock.now.Add(30*24*time.Hour).UnixMilli(), expiry)

		params, ok, _ := storage.Get(ParamsEntry)
		require.True(t, ok)
		assert.JSONEq(t, `{"utm_source":"ig"}`, params)
	})

	t.Run("empty set preserves the existing record", func(t *testing.T) {
		clock := &fakeClock{now: time.Now()}
		storage := NewMemoryStorage()
		store := newTestStore(t, storage, "", clock)
		store.Persist(Set{KeySource: "ig", KeyCampaign: "sale"})

		store.Persist(Set{})

		assert.Equal(t, Set{KeySource: "ig", KeyCampaign: "sale"}, store.ReadPersisted())
	})

	t.Run("non-empty capture replaces the whole record", func(t *testing.T) {
		clock := &fakeClock{now: time.Now()}
		storage := NewMemoryStorage()
		store := newTestStore(t, storage, "", clock)
		store.Persist(Set{KeySource: "ig", KeyCampaign: "sale"})

		store.Persist(Set{KeySource: "fb"})

		assert.Equal(t, Set{KeySource: "fb"}, store.ReadPersisted())
	})

	t.Run("failed expiry write leaves no orphaned params", func(t *testing.T) {
		inner := NewMemoryStorage()
		storage := &sequentialStorage{inner: inner, failSet: ExpiryEntry}
		store := newTestStore(t, storage, "", &fakeClock{now: time.Now()})

		store.Persist(Set{KeySource: "ig"})

		assert.Equal(t, 0, inner.Len())
	})
}

func TestStore_ReadPersisted(t *testing.T) {
	t.Run("no record yields empty set", func(t *testing.T) {
		store := newTestStore(t, NewMemoryStorage(), "", &fakeClock{now: time.Now()})
		assert.Empty(t, store.ReadPersisted())
	})

	t.Run("expired record is cleared", func(t *testing.T) {
		clock := &fakeClock{now: time.Now()}
		storage := NewMemoryStorage()
		store := newTestStore(t, storage, "", clock)
		store.Persist(Set{KeySource: "ig"})

		clock.Advance(30*24*time.Hour + time.Millisecond)

		assert.Empty(t, store.ReadPersisted())
		assert.Equal(t, 0, storage.Len())
		assert.Empty(t, store.ReadPersisted())
	})

	t.Run("record at exact expiry is still valid", func(t *testing.T) {
		clock := &fakeClock{now: time.Now()}
		store := newTestStore(t, NewMemoryStorage(), "", clock)
		store.Persist(Set{KeySource: "ig"})

		clock.Advance(30 * 24 * time.Hour)

		assert.Equal(t, Set{KeySource: "ig"}, store.ReadPersisted())
	})

	t.Run("missing expiry clears params", func(t *testing.T) {
		storage := NewMemoryStorage()
		require.NoError(t, storage.Set(ParamsEntry, `{"utm_source":"ig"}`))
		store := newTestStore(t, storage, "", &fakeClock{now: time.Now()})

		assert.Empty(t, store.ReadPersisted())
		assert.Equal(t, 0, storage.Len())
	})

	t.Run("malformed params are treated as absent", func(t *testing.T) {
		clock := &fakeClock{now: time.Now()}
		storage := NewMemoryStorage()
		require.NoError(t, storage.Set(ParamsEntry, `{not json`))
		require.NoError(t, storage.Set(ExpiryEntry, strconv.FormatInt(clock.now.Add(time.Hour).UnixMilli(), 10)))
		store := newTestStore(t, storage, "", clock)

		assert.Empty(t, store.ReadPersisted())
		assert.Equal(t, 0, storage.Len())
	})

	t.Run("malformed expiry is treated as absent", func(t *testing.T) {
		storage := NewMemoryStorage()
		require.NoError(t, storage.Set(ParamsEntry, `{"utm_source":"ig"}`))
		require.NoError(t, storage.Set(ExpiryEntry, "tomorrow"))
		store := newTestStore(t, storage, "", &fakeClock{now: time.Now()})

		assert.Empty(t, store.ReadPersisted())
		assert.Equal(t, 0, storage.Len())
	})

	t.Run("unknown stored keys are dropped", func(t *testing.T) {
		clock := &fakeClock{now: time.Now()}
		storage := NewMemoryStorage()
		require.NoError(t, storage.Set(ParamsEntry, `{"utm_source":"ig","session":"x"}`))
		require.NoError(t, storage.Set(ExpiryEntry, strconv.FormatInt(clock.now.Add(time.Hour).UnixMilli(), 10)))
		store := newTestStore(t, storage, "", clock)

		assert.Equal(t, Set{KeySource: "ig"}, store.ReadPersisted())
	})
}

func TestStore_StorageUnavailable(t *testing.T) {
	store := newTestStore(t, failingStorage{err: errors.Join(ErrStorageUnavailable, errors.New("quota exceeded"))},
		"utm_source=ig", &fakeClock{now: time.Now()})

	assert.NotPanics(t, func() {
		store.Initialize()
	})
	assert.Empty(t, store.ReadPersisted())
	assert.Equal(t, Set{KeySource: "ig"}, store.ResolveAll())
}

func TestStore_ResolveAll(t *testing.T) {
	t.Run("current values win over stored values", func(t *testing.T) {
		clock := &fakeClock{now: time.Now()}
		storage := NewMemoryStorage()
		seed := newTestStore(t, storage, "", clock)
		seed.Persist(Set{KeySource: "google", KeyCampaign: "spring", KeyTerm: "vitamins"})

		store := newTestStore(t, storage, "utm_source=fb&utm_medium=cpc", clock)

		assert.Equal(t, Set{
			KeySource:   "fb",
			KeyMedium:   "cpc",
			KeyCampaign: "spring",
			KeyTerm:     "vitamins",
		}, store.ResolveAll())
	})

	t.Run("entry attribution survives internal navigation", func(t *testing.T) {
		clock := &fakeClock{now: time.Now()}
		storage := NewMemoryStorage()

		entry := newTestStore(t, storage, "utm_source=ig&utm_campaign=sale", clock)
		entry.Initialize()

		expiry, ok := entry.Expiry()
		require.True(t, ok)
		assert.WithinDuration(t, clock.now.Add(30*24*time.Hour), expiry, time.Second)

		clock.Advance(5 * time.Minute)
		internal := newTestStore(t, storage, "product=1", clock)
		internal.Initialize()

		assert.Equal(t, Set{KeySource: "ig", KeyCampaign: "sale"}, internal.ResolveAll())
	})
}
