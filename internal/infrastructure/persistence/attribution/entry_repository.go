// Package attribution stores visitor attribution entries in SQL so they
// survive across devices that share a visitor id.
package attribution

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	domain "github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/database"
)

// SQLEntryRepository reads and writes the named attribution entries of
// visitors.
type SQLEntryRepository struct {
	db *database.DB
}

func NewSQLEntryRepository(db *database.DB) *SQLEntryRepository {
	return &SQLEntryRepository{db: db}
}

// ForVisitor returns the attribution storage of one visitor.
func (r *SQLEntryRepository) ForVisitor(visitorID string) *VisitorStorage {
	return &VisitorStorage{repo: r, visitorID: visitorID}
}

// PurgeStale removes entries not written since before cutoff.
func (r *SQLEntryRepository) PurgeStale(cutoff time.Time) (int64, error) {
	const query = `DELETE FROM attribution_entries WHERE updated_at < ?`
	start := time.Now()
	res, err := r.db.Exec(query, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge attribution entries: %w", err)
	}
	r.db.ObserveQuery("attribution:purge", start)
	return res.RowsAffected()
}

func (r *SQLEntryRepository) get(visitorID, name string) (string, bool, error) {
	const query = `SELECT value FROM attribution_entries WHERE visitor_id = ? AND name = ?`

	start := time.Now()
	var value string
	err := r.db.Get(&value, query, visitorID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		r.db.Logger().Database().Error("Attribution entry read failed", "error", err.Error(), "visitorId", visitorID, "name", name)
		return "", false, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	r.db.ObserveQuery("attribution:get", start)
	return value, true, nil
}

func (r *SQLEntryRepository) setEntries(visitorID string, entries map[string]string) error {
	const query = `
		INSERT INTO attribution_entries (visitor_id, name, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (visitor_id, name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	start := time.Now()
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	defer tx.Rollback()

	now := database.Now()
	for name, value := range entries {
		if _, err := tx.Exec(query, visitorID, name, value, now); err != nil {
			r.db.Logger().Database().Error("Attribution entry write failed", "error", err.Error(), "visitorId", visitorID, "name", name)
			return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	r.db.Logger().Database().Debug("Attribution entries written", "visitorId", visitorID, "count", len(entries), "duration", time.Since(start))
	r.db.ObserveQuery("attribution:set", start)
	return nil
}

func (r *SQLEntryRepository) remove(visitorID, name string) error {
	const query = `DELETE FROM attribution_entries WHERE visitor_id = ? AND name = ?`
	if _, err := r.db.Exec(query, visitorID, name); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// VisitorStorage adapts the repository to attribution.Storage for a single
// visitor. Both entries are written in one transaction.
type VisitorStorage struct {
	repo      *SQLEntryRepository
	visitorID string
}

var (
	_ domain.Storage     = (*VisitorStorage)(nil)
	_ domain.BatchWriter = (*VisitorStorage)(nil)
)

func (s *VisitorStorage) Get(name string) (string, bool, error) {
	return s.repo.get(s.visitorID, name)
}

func (s *VisitorStorage) Set(name, value string) error {
	return s.repo.setEntries(s.visitorID, map[string]string{name: value})
}

func (s *VisitorStorage) SetEntries(entries map[string]string) error {
	return s.repo.setEntries(s.visitorID, entries)
}

func (s *VisitorStorage) Remove(name string) error {
	return s.repo.remove(s.visitorID, name)
}
