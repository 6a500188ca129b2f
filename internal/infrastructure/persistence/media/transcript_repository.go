// Package media persists VSL transcripts.
package media

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/database"
)

var ErrTranscriptNotFound = errors.New("transcript not found")

// Transcript statuses.
const (
	StatusQueued    = "queued"
	StatusCompleted = "completed"
	StatusError     = "error"
)

type Transcript struct {
	ID        string `db:"id" json:"id"`
	VideoID   string `db:"video_id" json:"videoId"`
	SourceURL string `db:"source_url" json:"sourceUrl"`
	Status    string `db:"status" json:"status"`
	Text      string `db:"text" json:"text"`
	Words     int    `db:"words" json:"words"`
	CreatedAt int64  `db:"created_at" json:"createdAt"`
}

type SQLTranscriptRepository struct {
	db *database.DB
}

func NewSQLTranscriptRepository(db *database.DB) *SQLTranscriptRepository {
	return &SQLTranscriptRepository{db: db}
}

// Save inserts or replaces a transcript by id.
func (r *SQLTranscriptRepository) Save(t *Transcript) error {
	const query = `
		INSERT INTO transcripts (id, video_id, source_url, status, text, words, created_at)
		VALUES (:id, :video_id, :source_url, :status, :text, :words, :created_at)
		ON CONFLICT (id) DO UPDATE SET status = excluded.status, text = excluded.text, words = excluded.words`

	if t.CreatedAt == 0 {
		t.CreatedAt = database.Now()
	}
	start := time.Now()
	if _, err := r.db.NamedExec(query, t); err != nil {
		return fmt.Errorf("failed to save transcript %s: %w", t.ID, err)
	}
	r.db.ObserveQuery("transcripts:save", start)
	return nil
}

// Latest returns the newest completed transcript of a video.
func (r *SQLTranscriptRepository) Latest(videoID string) (*Transcript, error) {
	const query = `
		SELECT id, video_id, source_url, status, text, words, created_at FROM transcripts
		WHERE video_id = ? AND status = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`

	var t Transcript
	err := r.db.Get(&t, query, videoID, StatusCompleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTranscriptNotFound, videoID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript for %s: %w", videoID, err)
	}
	return &t, nil
}
