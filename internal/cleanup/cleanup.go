// Package cleanup finds and removes duplicate listings by natural key.
package cleanup

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"estateportal/server/internal/models"
)

// Store is the persistence the cleaner needs
type Store interface {
	ListKeyed(ctx context.Context, key models.NaturalKey) ([]models.Property, error)
	ListDuplicateGroup(ctx context.Context, key models.NaturalKey, member models.Property) ([]models.Property, error)
	DeleteProperties(ctx context.Context, ids []int64) (int64, error)
	FindActiveByTitleLocation(ctx context.Context, title, location string) ([]models.Property, error)
	FindActiveByRefNo(ctx context.Context, refNo string) ([]models.Property, error)
}

type Cleaner struct {
	store  Store
	logger *logrus.Logger
}

func NewCleaner(store Store, logger *logrus.Logger) *Cleaner {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &Cleaner{store: store, logger: logger}
}

// GroupKey returns the grouping value of p under key, or "" when the key is not set
func GroupKey(key models.NaturalKey, p models.Property) string {
	switch key {
	case models.KeyRefNo:
		ref := p.RefNoValue()
		if strings.TrimSpace(ref) == "" {
			return ""
		}
		return ref
	case models.KeyTitleLocation:
		title, location := models.NormalizeKey(p.Title), models.NormalizeKey(p.Location)
		if title == "" || location == "" {
			return ""
		}
		return title + "|" + location
	}
	return ""
}

type group struct {
	key     string
	members []models.Property
}

func groupRows(key models.NaturalKey, rows []models.Property) []group {
	index := make(map[string]int)
	var groups []group
	for _, row := range rows {
		k := GroupKey(key, row)
		if k == "" {
			continue
		}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{key: k})
		}
		groups[i].members = append(groups[i].members, row)
	}
	return groups
}

// RemoveDuplicates keeps the earliest created row of every natural-key group and deletes
// the rest. A group that fails is recorded and the pass moves on; only ctx cancellation
// stops it early, returning the stats gathered so far.
func (c *Cleaner) RemoveDuplicates(ctx context.Context, key models.NaturalKey) (models.CleanupStats, error) {
	stats := models.CleanupStats{Key: key}
	if !key.Valid() {
		return stats, fmt.Errorf("unsupported natural key %q", key)
	}

	rows, err := c.store.ListKeyed(ctx, key)
	if err != nil {
		return stats, fmt.Errorf("failed to fetch rows: %w", err)
	}

	groups := groupRows(key, rows)
	stats.Groups = make([]models.DuplicateGroupResult, 0)

	for _, g := range groups {
		if len(g.members) < 2 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.GroupsScanned++
		result, deleted := c.cleanGroup(ctx, key, g)
		// Counted from the re-read group so the totals agree with Groups
		if result.Members > 1 {
			stats.DuplicatesFound += result.Members - 1
		}
		stats.DuplicatesRemoved += int(deleted)
		if result.Error != "" {
			stats.Errors++
		}
		stats.Groups = append(stats.Groups, result)
	}

	c.logger.WithFields(logrus.Fields{
		"key":                key,
		"groups":             stats.GroupsScanned,
		"duplicates_found":   stats.DuplicatesFound,
		"duplicates_removed": stats.DuplicatesRemoved,
		"errors":             stats.Errors,
	}).Info("Duplicate cleanup completed")

	return stats, nil
}

// cleanGroup returns the group outcome and the number of rows the store actually deleted
func (c *Cleaner) cleanGroup(ctx context.Context, key models.NaturalKey, g group) (models.DuplicateGroupResult, int64) {
	result := models.DuplicateGroupResult{Key: g.key, Members: len(g.members)}
	log := c.logger.WithFields(logrus.Fields{"key": key, "group": g.key})

	// Re-read the group so the oldest row is chosen from current data
	members, err := c.store.ListDuplicateGroup(ctx, key, g.members[0])
	if err != nil {
		log.WithError(err).Error("Failed to fetch duplicate group")
		result.Error = err.Error()
		return result, 0
	}
	if len(members) < 2 {
		result.Members = len(members)
		return result, 0
	}
	sortOldestFirst(members)

	result.Members = len(members)
	result.KeptID = members[0].ID
	ids := make([]int64, 0, len(members)-1)
	for _, m := range members[1:] {
		ids = append(ids, m.ID)
	}

	deleted, err := c.store.DeleteProperties(ctx, ids)
	if err != nil {
		log.WithError(err).Error("Failed to delete duplicates")
		result.Error = err.Error()
		return result, 0
	}
	result.Removed = ids

	log.WithFields(logrus.Fields{"kept": result.KeptID, "removed": deleted}).Info("Removed duplicates")
	return result, deleted
}

// sortOldestFirst orders by created_at, then id
func sortOldestFirst(rows []models.Property) {
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].ID < rows[j].ID
	})
}

// CheckBeforeInsert reports existing active rows a new listing would duplicate:
// one match group for title and location, another for the reference number.
func (c *Cleaner) CheckBeforeInsert(ctx context.Context, title, location, refNo string) (models.DuplicateCheck, error) {
	check := models.DuplicateCheck{Matches: make([]models.DuplicateMatch, 0, 2)}

	if strings.TrimSpace(title) != "" && strings.TrimSpace(location) != "" {
		rows, err := c.store.FindActiveByTitleLocation(ctx, title, location)
		if err != nil {
			return check, fmt.Errorf("failed to check title and location: %w", err)
		}
		if len(rows) > 0 {
			check.Matches = append(check.Matches, models.DuplicateMatch{
				Type:       models.KeyTitleLocation,
				Count:      len(rows),
				Properties: rows,
			})
		}
	}

	if strings.TrimSpace(refNo) != "" {
		rows, err := c.store.FindActiveByRefNo(ctx, refNo)
		if err != nil {
			return check, fmt.Errorf("failed to check reference number: %w", err)
		}
		if len(rows) > 0 {
			check.Matches = append(check.Matches, models.DuplicateMatch{
				Type:       models.KeyRefNo,
				Count:      len(rows),
				Properties: rows,
			})
		}
	}

	check.HasDuplicates = len(check.Matches) > 0
	return check, nil
}
