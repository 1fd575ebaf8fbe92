package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"estateportal/server/config"
	"estateportal/server/internal/database"
	"estateportal/server/internal/dataset"
	"estateportal/server/internal/models"
	"estateportal/server/internal/slug"
)

// CreatePropertyRequest is a property row plus insertion flags. IsActive shadows the row's
// field so an omitted value means active.
type CreatePropertyRequest struct {
	models.Property
	IsActive *bool `json:"is_active"`
	Force    bool  `json:"force"`
}

type CleanupRequest struct {
	// ref_no, title_location, or empty for both
	Key string `json:"key"`
}

// CreateProperty inserts a listing after the duplicate check. Duplicates block the insert
// with 409 unless force is set. Every attempt is written to the insertion log.
func (h *Handler) CreateProperty(c *gin.Context) {
	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid property request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	p := req.Property
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}
	refNo := ""
	if p.RefNo != nil {
		refNo = strings.TrimSpace(*p.RefNo)
		if refNo == "" {
			p.RefNo = nil
		} else {
			p.RefNo = &refNo
		}
	}
	p.ID = 0
	p.IsActive = req.IsActive == nil || *req.IsActive
	p.Slug = strings.TrimSpace(p.Slug)
	generated := p.Slug == ""
	if generated {
		p.Slug = slug.WithSuffix(slug.Make(p.Title), refNo)
		if p.Slug == "" {
			p.Slug = "property"
		}
	}

	ctx := c.Request.Context()
	check, err := h.cleaner.CheckBeforeInsert(ctx, p.Title, p.Location, refNo)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check for duplicates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check for duplicates"})
		return
	}

	entry := &models.InsertionLog{
		RefNo:          refNo,
		Title:          p.Title,
		Location:       p.Location,
		DuplicateCount: check.Total(),
	}

	if check.HasDuplicates && !req.Force {
		entry.Outcome = models.OutcomeBlockedDuplicate
		h.logInsertion(c, entry)
		c.JSON(http.StatusConflict, gin.H{
			"error":      "Possible duplicate property",
			"duplicates": check,
		})
		return
	}

	// A forced duplicate shares title and ref with the existing row, so its generated slug
	// needs a suffix. An explicit slug that is taken fails on the unique index instead.
	if generated {
		free, err := h.availableSlug(ctx, p.Slug)
		if err != nil {
			h.logger.WithError(err).Error("Failed to allocate slug")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create property"})
			return
		}
		p.Slug = free
	}

	if err := h.db.CreateProperty(ctx, &p); err != nil {
		entry.Outcome = models.OutcomeFailed
		entry.Detail = err.Error()
		h.logInsertion(c, entry)

		if database.IsDuplicateKey(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "Property slug already exists"})
			return
		}
		h.logger.WithError(err).Error("Failed to create property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create property"})
		return
	}

	entry.PropertyID = &p.ID
	entry.Outcome = models.OutcomeInserted
	if check.HasDuplicates {
		entry.Outcome = models.OutcomeForced
	}
	h.logInsertion(c, entry)

	c.JSON(http.StatusCreated, gin.H{
		"property":   p,
		"duplicates": check,
	})
}

const maxSlugAttempts = 50

// availableSlug returns base, or base with the first free numeric suffix starting at 2
func (h *Handler) availableSlug(ctx context.Context, base string) (string, error) {
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := base
		if n > 1 {
			candidate = slug.WithSuffix(base, strconv.Itoa(n))
		}
		exists, err := h.db.SlugExists(ctx, config.DefaultLanguage, candidate, 0)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxSlugAttempts)
}

func (h *Handler) logInsertion(c *gin.Context, entry *models.InsertionLog) {
	if err := h.db.LogInsertion(c.Request.Context(), entry); err != nil {
		h.logger.WithError(err).WithField("title", entry.Title).Error("Failed to write insertion log")
	}
}

func (h *Handler) CheckDuplicates(c *gin.Context) {
	check, err := h.cleaner.CheckBeforeInsert(c.Request.Context(), c.Query("title"), c.Query("location"), c.Query("ref_no"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to check for duplicates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check for duplicates"})
		return
	}
	c.JSON(http.StatusOK, check)
}

// CleanupDuplicates runs the cleaner for one key, or for ref_no then title_location
func (h *Handler) CleanupDuplicates(c *gin.Context) {
	// An empty body, with or without a Content-Length, means both keys
	var req CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	keys := []models.NaturalKey{models.KeyRefNo, models.KeyTitleLocation}
	if req.Key != "" {
		key := models.NaturalKey(req.Key)
		if !key.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "key must be ref_no or title_location"})
			return
		}
		keys = []models.NaturalKey{key}
	}

	results := make([]models.CleanupStats, 0, len(keys))
	for _, key := range keys {
		stats, err := h.cleaner.RemoveDuplicates(c.Request.Context(), key)
		if err != nil {
			h.logger.WithError(err).WithField("key", key).Error("Duplicate cleanup failed")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Duplicate cleanup failed",
				"results": append(results, stats),
			})
			return
		}
		results = append(results, stats)
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// SyncDataset upserts the bundled catalogue
func (h *Handler) SyncDataset(c *gin.Context) {
	records, err := dataset.Load()
	if err != nil {
		h.logger.WithError(err).Error("Failed to load dataset")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dataset"})
		return
	}

	stats, err := h.syncer.Sync(c.Request.Context(), dataset.Properties(records))
	if err != nil {
		h.logger.WithError(err).Error("Dataset sync interrupted")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Dataset sync interrupted", "stats": stats})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// RepairCoordinates geocodes rows that still carry placeholder coordinates
func (h *Handler) RepairCoordinates(c *gin.Context) {
	stats, err := h.db.UpdatePlaceholderCoordinates(c.Request.Context(), h.geocoder)
	if err != nil {
		h.logger.WithError(err).Error("Failed to update coordinates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update coordinates"})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"updated": stats.Updated,
		"failed":  stats.Failed,
	}).Info("Coordinate repair finished")
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetInsertionLog(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	entries, err := h.db.ListInsertionLog(c.Request.Context(), models.InsertionOutcome(c.Query("outcome")), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get insertion log")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get insertion log"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
