// Package translation fills localized slugs for listings using the LLM, in batches.
package translation

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"estateportal/server/config"
	"estateportal/server/internal/llm"
	"estateportal/server/internal/models"
	"estateportal/server/internal/slug"
)

const MaxBatchSize = 50

// Store is the persistence the translator needs
type Store interface {
	CountUntranslated(ctx context.Context, langs []string, force bool, afterID int64) (int64, error)
	ListUntranslated(ctx context.Context, langs []string, limit int, force bool, afterID int64) ([]models.Property, error)
	SlugExists(ctx context.Context, lang, slug string, excludeID int64) (bool, error)
	UpdateSlugs(ctx context.Context, id int64, slugs map[string]string) error
}

type Translator struct {
	store            Store
	llm              llm.Client
	logger           *logrus.Logger
	defaultBatchSize int
	maxBatches       int
}

func NewTranslator(store Store, client llm.Client, defaultBatchSize, maxBatches int, logger *logrus.Logger) *Translator {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if defaultBatchSize <= 0 {
		defaultBatchSize = 10
	}
	if maxBatches <= 0 {
		maxBatches = 500
	}
	return &Translator{
		store:            store,
		llm:              client,
		logger:           logger,
		defaultBatchSize: defaultBatchSize,
		maxBatches:       maxBatches,
	}
}

// Normalize fills defaults and validates the job's languages
func (t *Translator) Normalize(job models.TranslationJob) (models.TranslationJob, error) {
	if job.BatchSize <= 0 {
		job.BatchSize = t.defaultBatchSize
	}
	if job.BatchSize > MaxBatchSize {
		job.BatchSize = MaxBatchSize
	}
	if job.AfterID < 0 {
		job.AfterID = 0
	}

	if len(job.Languages) == 0 {
		job.Languages = config.TranslatedLanguageCodes()
		return job, nil
	}

	seen := make(map[string]bool, len(job.Languages))
	langs := make([]string, 0, len(job.Languages))
	for _, raw := range job.Languages {
		lang := config.NormalizeLanguage(raw)
		if lang == config.DefaultLanguage || !config.IsSupportedLanguage(lang) {
			return job, fmt.Errorf("unsupported translation language %q", raw)
		}
		if !seen[lang] {
			seen[lang] = true
			langs = append(langs, lang)
		}
	}
	job.Languages = langs
	return job, nil
}

// TranslateBatch translates one batch of rows after job.AfterID. A row whose translation or
// update fails is counted and skipped; the cursor still advances past it so a later batch
// cannot pick it up again within the same drain.
func (t *Translator) TranslateBatch(ctx context.Context, job models.TranslationJob) (models.TranslationProgress, error) {
	job, err := t.Normalize(job)
	if err != nil {
		return models.TranslationProgress{}, err
	}
	progress := models.TranslationProgress{Languages: job.Languages, NextAfterID: job.AfterID, Batches: 1}

	rows, err := t.store.ListUntranslated(ctx, job.Languages, job.BatchSize, job.ForceRetranslate, job.AfterID)
	if err != nil {
		return progress, fmt.Errorf("failed to fetch untranslated rows: %w", err)
	}

	for i := range rows {
		if err := ctx.Err(); err != nil {
			return progress, err
		}
		row := &rows[i]
		progress.Processed++
		progress.NextAfterID = row.ID

		if err := t.translateRow(ctx, row, job); err != nil {
			t.logger.WithError(err).WithFields(logrus.Fields{
				"property_id": row.ID,
				"title":       row.Title,
			}).Error("Failed to translate slugs")
			progress.Failed++
			continue
		}
		progress.Translated++
	}

	remaining, err := t.store.CountUntranslated(ctx, job.Languages, job.ForceRetranslate, progress.NextAfterID)
	if err != nil {
		return progress, fmt.Errorf("failed to count remaining rows: %w", err)
	}
	progress.Remaining = remaining
	progress.Done = remaining == 0 || len(rows) == 0

	t.logger.WithFields(logrus.Fields{
		"processed":  progress.Processed,
		"translated": progress.Translated,
		"failed":     progress.Failed,
		"remaining":  progress.Remaining,
		"after_id":   progress.NextAfterID,
	}).Info("Slug translation batch completed")

	return progress, nil
}

// Drain runs batches until nothing is left after the cursor, the batch limit is reached or ctx
// is done. The returned progress sums every batch.
func (t *Translator) Drain(ctx context.Context, job models.TranslationJob) (models.TranslationProgress, error) {
	total := models.TranslationProgress{NextAfterID: job.AfterID}

	for total.Batches < t.maxBatches {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		p, err := t.TranslateBatch(ctx, job)
		total.Languages = p.Languages
		total.Processed += p.Processed
		total.Translated += p.Translated
		total.Failed += p.Failed
		total.Batches += p.Batches
		total.Remaining = p.Remaining
		total.NextAfterID = p.NextAfterID
		if err != nil {
			return total, err
		}
		if p.Done {
			total.Done = true
			break
		}
		job.AfterID = p.NextAfterID
	}

	t.logger.WithFields(logrus.Fields{
		"batches":    total.Batches,
		"translated": total.Translated,
		"failed":     total.Failed,
		"remaining":  total.Remaining,
		"done":       total.Done,
	}).Info("Slug translation drain finished")

	return total, nil
}

func (t *Translator) translateRow(ctx context.Context, row *models.Property, job models.TranslationJob) error {
	base := row.Slug
	if base == "" {
		base = slug.Make(row.Title)
	}

	slugs := make(map[string]string, len(job.Languages))
	for _, lang := range job.Languages {
		if !job.ForceRetranslate && row.SlugFor(lang) != "" {
			continue
		}

		candidate, err := t.translateSlug(ctx, row, base, lang)
		if err != nil {
			return fmt.Errorf("failed to translate to %s: %w", lang, err)
		}
		unique, err := t.uniqueSlug(ctx, row, lang, candidate)
		if err != nil {
			return err
		}
		slugs[lang] = unique
	}

	if len(slugs) == 0 {
		return nil
	}
	return t.store.UpdateSlugs(ctx, row.ID, slugs)
}

func (t *Translator) translateSlug(ctx context.Context, row *models.Property, base, lang string) (string, error) {
	language := config.GetLanguageByCode(lang)
	if language == nil {
		return "", fmt.Errorf("unsupported language %q", lang)
	}

	prompt := fmt.Sprintf("Title: %s\nLocation: %s\nEnglish slug: %s", row.Title, row.Location, base)
	out, err := t.llm.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: fmt.Sprintf(
				"You translate URL slugs for a real estate website into %s. "+
					"Reply with the translated slug only: lowercase words joined by hyphens, "+
					"no quotes, no explanation. Keep place names and reference codes unchanged.",
				language.Name)},
			{Role: llm.RoleUser, Content: prompt},
		},
		Temperature: 0.2,
		MaxTokens:   60,
	})
	if err != nil {
		return "", err
	}

	// Models sometimes answer with a sentence or a quoted line; keep the first line only
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}
	s := slug.Make(out)
	if s == "" {
		s = base
	}
	return s, nil
}

// uniqueSlug suffixes the candidate with the reference number, then the id, until no other
// row uses it for lang
func (t *Translator) uniqueSlug(ctx context.Context, row *models.Property, lang, candidate string) (string, error) {
	suffixes := []string{"", row.RefNoValue(), strconv.FormatInt(row.ID, 10)}
	for _, suffix := range suffixes {
		s := candidate
		if suffix != "" {
			s = slug.WithSuffix(candidate, suffix)
			if s == candidate {
				continue
			}
		}
		exists, err := t.store.SlugExists(ctx, lang, s, row.ID)
		if err != nil {
			return "", err
		}
		if !exists {
			return s, nil
		}
	}
	return slug.WithSuffix(candidate, lang+"-"+strconv.FormatInt(row.ID, 10)), nil
}
