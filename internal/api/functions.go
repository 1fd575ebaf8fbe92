package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"estateportal/server/internal/chatbot"
	"estateportal/server/internal/llm"
	"estateportal/server/internal/models"
	"estateportal/server/internal/queue"
)

// TranslateRequest is the translate-slugs payload
type TranslateRequest struct {
	BatchSize        int      `json:"batchSize"`
	Languages        []string `json:"languages"`
	ForceRetranslate bool     `json:"forceRetranslate"`
	AfterID          int64    `json:"afterId"`
}

func (h *Handler) Sitemap(c *gin.Context) {
	out, err := h.sitemap.Generate(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate sitemap")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate sitemap"})
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/xml; charset=utf-8", out)
}

func (h *Handler) Chatbot(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid chatbot request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	resp, err := h.bot.Handle(c.Request.Context(), req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, resp)
	case errors.Is(err, chatbot.ErrEmptyMessage), errors.Is(err, chatbot.ErrInvalidBooking):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, llm.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assistant is not available"})
	case errors.Is(err, chatbot.ErrBookingUndelivered):
		h.logger.WithError(err).Error("Booking was not delivered")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to submit booking, please try again"})
	default:
		h.logger.WithError(err).Error("Chatbot request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process message"})
	}
}

// TranslateSlugs runs one batch in the request. When rows remain, the rest of the run is
// queued for the background drain instead of chaining further requests.
func (h *Handler) TranslateSlugs(c *gin.Context) {
	if h.translator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Translation is not configured"})
		return
	}

	var req TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	job, err := h.translator.Normalize(models.TranslationJob{
		BatchSize:        req.BatchSize,
		Languages:        req.Languages,
		ForceRetranslate: req.ForceRetranslate,
		AfterID:          req.AfterID,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	progress, err := h.translator.TranslateBatch(c.Request.Context(), job)
	if err != nil {
		h.logger.WithError(err).Error("Slug translation batch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to translate slugs"})
		return
	}

	if !progress.Done && h.jobs != nil {
		job.AfterID = progress.NextAfterID
		switch err := h.jobs.Push(job); {
		case err == nil:
			progress.Continued = true
		case errors.Is(err, queue.ErrQueueFull):
			h.logger.Warn("Translation queue is full, continuation dropped")
		default:
			h.logger.WithError(err).Error("Failed to queue translation continuation")
		}
	}

	c.JSON(http.StatusOK, progress)
}

// drainTranslations is the queue subscriber for continuation jobs
func (h *Handler) drainTranslations(job models.TranslationJob) error {
	progress, err := h.translator.Drain(h.ctx, job)
	if err != nil {
		return err
	}
	h.logger.WithFields(logrus.Fields{
		"translated": progress.Translated,
		"failed":     progress.Failed,
		"done":       progress.Done,
	}).Info("Background slug translation finished")
	return nil
}
