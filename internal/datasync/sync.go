// Package datasync upserts the bundled catalogue into the properties table.
package datasync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"estateportal/server/internal/models"
)

var ErrMissingRefNo = errors.New("record has no reference number")

// Store is the persistence the syncer needs. FindByRefNo returns nil when no row matches.
type Store interface {
	FindByRefNo(ctx context.Context, refNo string) (*models.Property, error)
	CreateProperty(ctx context.Context, p *models.Property) error
	UpdateProperty(ctx context.Context, p *models.Property) error
}

type Syncer struct {
	store  Store
	logger *logrus.Logger
	now    func() time.Time
}

type Option func(*Syncer)

// WithClock replaces time.Now for the run timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

func NewSyncer(store Store, logger *logrus.Logger, opts ...Option) *Syncer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	s := &Syncer{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync writes every record by reference number: rows that exist are overwritten in place,
// the rest are inserted. Records are processed one at a time and a failing record is counted
// without stopping the run. The last writer wins when two syncs race on the same key.
func (s *Syncer) Sync(ctx context.Context, records []models.Property) (models.SyncStats, error) {
	stats := models.SyncStats{Total: len(records), StartedAt: s.now().UTC()}

	for i := range records {
		if err := ctx.Err(); err != nil {
			stats.FinishedAt = s.now().UTC()
			return stats, err
		}

		record := records[i]
		inserted, err := s.syncOne(ctx, &record)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"ref_no": record.RefNoValue(),
				"title":  record.Title,
			}).Error("Failed to sync property")
			stats.Errors++
			stats.Failures = append(stats.Failures, models.SyncFailure{
				RefNo: record.RefNoValue(),
				Title: record.Title,
				Error: err.Error(),
			})
			continue
		}

		stats.Synced++
		if inserted {
			stats.Inserted++
		} else {
			stats.Updated++
		}
	}

	stats.FinishedAt = s.now().UTC()
	s.logger.WithFields(logrus.Fields{
		"total":    stats.Total,
		"synced":   stats.Synced,
		"inserted": stats.Inserted,
		"updated":  stats.Updated,
		"errors":   stats.Errors,
	}).Info("Dataset sync completed")

	return stats, nil
}

func (s *Syncer) syncOne(ctx context.Context, record *models.Property) (bool, error) {
	refNo := strings.TrimSpace(record.RefNoValue())
	if refNo == "" {
		return false, ErrMissingRefNo
	}
	record.RefNo = &refNo

	existing, err := s.store.FindByRefNo(ctx, refNo)
	if err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", refNo, err)
	}

	if existing == nil {
		record.ID = 0
		if err := s.store.CreateProperty(ctx, record); err != nil {
			return false, err
		}
		return true, nil
	}

	record.ID = existing.ID
	record.CreatedAt = existing.CreatedAt
	if existing.Slug != "" {
		// Keep the published URL stable
		record.Slug = existing.Slug
	}
	if err := s.store.UpdateProperty(ctx, record); err != nil {
		return false, err
	}
	return false, nil
}
