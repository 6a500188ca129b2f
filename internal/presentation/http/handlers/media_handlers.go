package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/AtRiskMedia/vsl-go/internal/application/services"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/performance"
	repo "github.com/AtRiskMedia/vsl-go/internal/infrastructure/persistence/media"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

// MediaHandlers serve the transcript and the admin media operations.
type MediaHandlers struct {
	mediaService *services.MediaService
	maxUpload    int64
	logger       *logging.ChanneledLogger
	perfTracker  *performance.Tracker
}

// NewMediaHandlers creates media handlers with injected dependencies
func NewMediaHandlers(mediaService *services.MediaService, maxUploadMB int, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *MediaHandlers {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &MediaHandlers{
		mediaService: mediaService,
		maxUpload:    int64(maxUploadMB) << 20,
		logger:       logger,
		perfTracker:  perfTracker,
	}
}

// GetTranscript handles GET /api/v1/video/transcript
func (h *MediaHandlers) GetTranscript(c *gin.Context) {
	transcript, err := h.mediaService.Transcript()
	if errors.Is(err, repo.ErrTranscriptNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "transcript not found"})
		return
	}
	if err != nil {
		h.logger.LogError(logging.ChannelMedia, "get_transcript", err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load transcript"})
		return
	}
	c.JSON(http.StatusOK, transcript)
}

// PostTranscribe handles POST /api/v1/admin/video/transcribe
func (h *MediaHandlers) PostTranscribe(c *gin.Context) {
	marker := h.perfTracker.StartOperation("media:transcribe", "admin")
	defer marker.Complete()

	transcript, err := h.mediaService.Transcribe(c.Request.Context())
	if errors.Is(err, media.ErrTranscriptionDisabled) {
		marker.SetError(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		marker.SetError(err)
		h.logger.LogError(logging.ChannelMedia, "transcribe", err, nil)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "transcript": transcript})
		return
	}
	marker.SetSuccess(true)
	c.JSON(http.StatusOK, transcript)
}

// PostHeroImage handles POST /api/v1/admin/media/hero (multipart field "image")
func (h *MediaHandlers) PostHeroImage(c *gin.Context) {
	marker := h.perfTracker.StartOperation("media:hero_upload", "admin")
	defer marker.Complete()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+(1<<20))
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		marker.SetError(errors.New("upload too large"))
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds " + humanize.IBytes(uint64(h.maxUpload))})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}

	variants, err := h.mediaService.UploadHero(data)
	if errors.Is(err, media.ErrUnsupportedImage) {
		marker.SetError(err)
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		marker.SetError(err)
		h.logger.LogError(logging.ChannelMedia, "upload_hero", err, map[string]any{"filename": header.Filename})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process image"})
		return
	}

	marker.SetSuccess(true)
	h.logger.Media().Info("Hero image replaced", "filename", header.Filename, "size", humanize.IBytes(uint64(len(data))), "variants", len(variants))
	c.JSON(http.StatusCreated, gin.H{"variants": variants})
}
