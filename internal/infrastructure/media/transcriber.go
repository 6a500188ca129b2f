package media

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AssemblyAI/assemblyai-go-sdk"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	repo "github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/media"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/security"
)

// DefaultLanguage is the language the VSL is narrated in.
const DefaultLanguage = "pt"

var ErrTranscriptionDisabled = errors.New("transcription not configured")

// TranscriptionResult is the provider-neutral outcome of one transcription.
type TranscriptionResult struct {
	ID     string
	Status string
	Text   string
	Error  string
}

// TranscribeFunc runs one blocking transcription of audioURL.
type TranscribeFunc func(ctx context.Context, audioURL, language string) (TranscriptionResult, error)

// TranscriptStore persists transcripts.
type TranscriptStore interface {
	Save(t *repo.Transcript) error
}

// Transcriber turns the VSL audio into a stored transcript.
type Transcriber struct {
	transcribe TranscribeFunc
	store      TranscriptStore
	logger     *logging.ChanneledLogger
	language   string
}

// NewAssemblyAITranscriber wires the AssemblyAI SDK. An empty key yields
// ErrTranscriptionDisabled.
func NewAssemblyAITranscriber(apiKey string, store TranscriptStore, logger *logging.ChanneledLogger) (*Transcriber, error) {
	if apiKey == "" {
		return nil, ErrTranscriptionDisabled
	}
	client := assemblyai.NewClient(apiKey)
	return NewTranscriber(func(ctx context.Context, audioURL, language string) (TranscriptionResult, error) {
		params := &assemblyai.TranscriptOptionalParams{
			LanguageCode: assemblyai.TranscriptLanguageCode(language),
		}
		transcript, err := client.Transcripts.TranscribeFromURL(ctx, audioURL, params)
		if err != nil {
			return TranscriptionResult{}, err
		}
		return TranscriptionResult{
			ID:     deref(transcript.ID),
			Status: string(transcript.Status),
			Text:   deref(transcript.Text),
			Error:  deref(transcript.Error),
		}, nil
	}, store, logger), nil
}

// NewTranscriber creates a transcriber over any transcription backend.
func NewTranscriber(transcribe TranscribeFunc, store TranscriptStore, logger *logging.ChanneledLogger) *Transcriber {
	return &Transcriber{
		transcribe: transcribe,
		store:      store,
		logger:     logger,
		language:   DefaultLanguage,
	}
}

// Transcribe transcribes audioURL for videoID and stores the result. Failed
// transcriptions are stored with the error status so the attempt is visible.
func (t *Transcriber) Transcribe(ctx context.Context, videoID, audioURL string) (*repo.Transcript, error) {
	if audioURL == "" {
		return nil, errors.New("no audio url configured for transcription")
	}
	start := time.Now()
	t.logger.Media().Info("Transcription started", "videoId", videoID, "audioUrl", audioURL)

	result, err := t.transcribe(ctx, audioURL, t.language)
	if err != nil {
		t.logger.Media().Error("Transcription request failed", "videoId", videoID, "error", err.Error(), "duration", time.Since(start))
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}

	id := result.ID
	if id == "" {
		id = security.GenerateULID()
	}
	record := &repo.Transcript{
		ID:        id,
		VideoID:   videoID,
		SourceURL: audioURL,
		Status:    repo.StatusCompleted,
		Text:      result.Text,
		Words:     len(strings.Fields(result.Text)),
	}
	if result.Status != repo.StatusCompleted {
		record.Status = repo.StatusError
		record.Text = ""
		record.Words = 0
	}

	if err := t.store.Save(record); err != nil {
		return nil, err
	}

	if record.Status == repo.StatusError {
		t.logger.Media().Warn("Transcription finished without text", "videoId", videoID, "status", result.Status, "error", result.Error, "duration", time.Since(start))
		return record, fmt.Errorf("transcription %s ended with status %q: %s", id, result.Status, result.Error)
	}

	t.logger.Media().Info("Transcription completed", "videoId", videoID, "transcriptId", id, "words", record.Words, "duration", time.Since(start))
	return record, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
