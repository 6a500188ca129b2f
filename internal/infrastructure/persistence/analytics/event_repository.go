// Package analytics persists tracked funnel events so the admin dashboard
// can read them back without the external sinks.
package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/domain/tracking"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/database"
)

// StoredEvent is one row of the events table.
type StoredEvent struct {
	ID          string         `db:"id" json:"id"`
	Kind        string         `db:"kind" json:"kind"`
	Name        string         `db:"name" json:"name"`
	VisitorID   string         `db:"visitor_id" json:"visitorId"`
	PageViewID  string         `db:"page_view_id" json:"pageViewId,omitempty"`
	PageURL     string         `db:"page_url" json:"pageUrl,omitempty"`
	PayloadJSON string         `db:"payload" json:"-"`
	AttrJSON    string         `db:"attribution" json:"-"`
	OccurredAt  int64          `db:"occurred_at" json:"occurredAt"`
	Payload     map[string]any `db:"-" json:"payload"`
	Attribution map[string]any `db:"-" json:"attribution"`
}

// KindCount is the number of stored events of one kind.
type KindCount struct {
	Kind  string `db:"kind" json:"kind"`
	Count int    `db:"count" json:"count"`
}

// SQLEventRepository handles event persistence to the database.
type SQLEventRepository struct {
	db *database.DB
}

// NewSQLEventRepository creates a new instance of the repository.
func NewSQLEventRepository(db *database.DB) *SQLEventRepository {
	return &SQLEventRepository{db: db}
}

// Store saves a tracked event.
func (r *SQLEventRepository) Store(event tracking.Event) error {
	const query = `
		INSERT INTO events (id, kind, name, visitor_id, page_view_id, page_url, payload, attribution, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode event payload: %w", err)
	}
	attr, err := json.Marshal(event.Attribution)
	if err != nil {
		return fmt.Errorf("failed to encode event attribution: %w", err)
	}

	start := time.Now()
	r.db.Logger().Database().Debug("Executing event insert", "eventId", event.ID, "kind", event.Kind, "visitorId", event.Visitor.ID)

	_, err = r.db.Exec(query,
		event.ID,
		string(event.Kind),
		event.Name,
		event.Visitor.ID,
		event.Visitor.PageViewID,
		event.Visitor.PageURL,
		string(payload),
		string(attr),
		event.OccurredAt.UnixMilli(),
	)
	if err != nil {
		r.db.Logger().Database().Error("Event insert failed", "error", err.Error(), "eventId", event.ID, "kind", event.Kind)
		return fmt.Errorf("failed to store event: %w", err)
	}

	r.db.Logger().Database().Debug("Event insert completed", "eventId", event.ID, "duration", time.Since(start))
	r.db.ObserveQuery("events:insert", start)
	return nil
}

// Recent returns the newest events, optionally filtered by kind.
func (r *SQLEventRepository) Recent(limit int, kind string) ([]StoredEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT id, kind, name, visitor_id, page_view_id, page_url, payload, attribution, occurred_at FROM events`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY occurred_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	start := time.Now()
	var rows []StoredEvent
	if err := r.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	r.db.ObserveQuery("events:recent", start)

	for i := range rows {
		rows[i].Payload = map[string]any{}
		rows[i].Attribution = map[string]any{}
		if err := json.Unmarshal([]byte(rows[i].PayloadJSON), &rows[i].Payload); err != nil {
			r.db.Logger().Database().Warn("Skipping malformed event payload", "eventId", rows[i].ID, "error", err.Error())
		}
		if err := json.Unmarshal([]byte(rows[i].AttrJSON), &rows[i].Attribution); err != nil {
			r.db.Logger().Database().Warn("Skipping malformed event attribution", "eventId", rows[i].ID, "error", err.Error())
		}
	}
	return rows, nil
}

// CountByKind returns event counts since the given time, largest first.
func (r *SQLEventRepository) CountByKind(since time.Time) ([]KindCount, error) {
	const query = `
		SELECT kind, COUNT(*) AS count FROM events
		WHERE occurred_at >= ?
		GROUP BY kind ORDER BY count DESC, kind`

	var counts []KindCount
	if err := r.db.Select(&counts, query, since.UnixMilli()); err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	return counts, nil
}

// CountBySource counts events of kind since the given time, grouped by
// utm_source. Events without a source count as "direct".
func (r *SQLEventRepository) CountBySource(kind tracking.Kind, since time.Time) (map[string]int, error) {
	const query = `SELECT attribution FROM events WHERE kind = ? AND occurred_at >= ?`

	var raws []string
	if err := r.db.Select(&raws, query, string(kind), since.UnixMilli()); err != nil {
		return nil, fmt.Errorf("failed to load event attribution: %w", err)
	}

	out := make(map[string]int)
	for _, raw := range raws {
		var set attribution.Set
		_ = json.Unmarshal([]byte(raw), &set)
		out[set.Get(attribution.KeySource, "direct")]++
	}
	return out, nil
}

// PurgeBefore deletes events older than cutoff.
func (r *SQLEventRepository) PurgeBefore(cutoff time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM events WHERE occurred_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to purge events: %w", err)
	}
	return res.RowsAffected()
}
