package services

import (
	"context"
	"fmt"

	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	repo "github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/media"
)

// TranscriptRunner produces and stores a transcript.
type TranscriptRunner interface {
	Transcribe(ctx context.Context, videoID, audioURL string) (*repo.Transcript, error)
}

// TranscriptReader loads stored transcripts.
type TranscriptReader interface {
	Latest(videoID string) (*repo.Transcript, error)
}

// MediaService handles hero uploads and the VSL transcript.
type MediaService struct {
	images      *media.ImageProcessor
	transcriber TranscriptRunner
	transcripts TranscriptReader
	videoID     string
	audioURL    string
	logger      *logging.ChanneledLogger
}

// NewMediaService creates the service. transcriber may be nil when no
// transcription key is configured.
func NewMediaService(images *media.ImageProcessor, transcriber TranscriptRunner, transcripts TranscriptReader, videoID, audioURL string, logger *logging.ChanneledLogger) *MediaService {
	return &MediaService{
		images:      images,
		transcriber: transcriber,
		transcripts: transcripts,
		videoID:     videoID,
		audioURL:    audioURL,
		logger:      logger,
	}
}

// UploadHero replaces the responsive hero image set.
func (s *MediaService) UploadHero(data []byte) ([]media.Variant, error) {
	variants, err := s.images.ProcessHero(data)
	if err != nil {
		return nil, fmt.Errorf("failed to process hero image: %w", err)
	}
	return variants, nil
}

// Transcribe transcribes the configured VSL audio.
func (s *MediaService) Transcribe(ctx context.Context) (*repo.Transcript, error) {
	if s.transcriber == nil || s.audioURL == "" {
		return nil, media.ErrTranscriptionDisabled
	}
	return s.transcriber.Transcribe(ctx, s.videoID, s.audioURL)
}

// Transcript returns the latest stored transcript of the VSL video.
func (s *MediaService) Transcript() (*repo.Transcript, error) {
	return s.transcripts.Latest(s.videoID)
}
