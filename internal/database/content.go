package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"estateportal/server/internal/models"
)

// ListPublishedPosts returns published posts, newest first
func (d *Database) ListPublishedPosts(ctx context.Context) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	if err := d.db.WithContext(ctx).
		Where("published = ?", true).
		Order("published_at DESC, id DESC").
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}
	return posts, nil
}

func (d *Database) GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := d.db.WithContext(ctx).
		Where("slug = ? AND published = ?", slug, true).
		First(&post).Error; err != nil {
		return nil, translateError(err)
	}
	return &post, nil
}

func (d *Database) CreatePost(ctx context.Context, post *models.BlogPost) error {
	if err := d.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to insert blog post: %w", translateError(err))
	}
	return nil
}

func (d *Database) ListTestimonials(ctx context.Context) ([]models.Testimonial, error) {
	var rows []models.Testimonial
	if err := d.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list testimonials: %w", err)
	}
	return rows, nil
}

func (d *Database) CreateTestimonial(ctx context.Context, t *models.Testimonial) error {
	if err := d.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to insert testimonial: %w", err)
	}
	return nil
}

func (d *Database) ListTeamMembers(ctx context.Context) ([]models.TeamMember, error) {
	var rows []models.TeamMember
	if err := d.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	return rows, nil
}

func (d *Database) CreateTeamMember(ctx context.Context, m *models.TeamMember) error {
	if err := d.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to insert team member: %w", err)
	}
	return nil
}

// LogInsertion records an admin insertion attempt. The id and timestamp are filled in when empty.
func (d *Database) LogInsertion(ctx context.Context, entry *models.InsertionLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := d.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write insertion log: %w", err)
	}
	return nil
}

// ListInsertionLog returns the most recent entries, optionally for one outcome
func (d *Database) ListInsertionLog(ctx context.Context, outcome models.InsertionOutcome, limit int) ([]models.InsertionLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	q := d.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if outcome != "" {
		q = q.Where("outcome = ?", outcome)
	}

	var entries []models.InsertionLog
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list insertion log: %w", err)
	}
	return entries, nil
}
