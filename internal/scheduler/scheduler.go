package scheduler

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"estateportal/server/internal/dataset"
	"estateportal/server/internal/models"
)

// JobType represents the maintenance jobs the scheduler runs
type JobType int

const (
	JobTypeSync JobType = iota
	JobTypeCleanup
	JobTypeTranslation
)

// String returns the string representation of a JobType
func (j JobType) String() string {
	switch j {
	case JobTypeSync:
		return "sync"
	case JobTypeCleanup:
		return "cleanup"
	case JobTypeTranslation:
		return "translation"
	default:
		return "unknown"
	}
}

type Syncer interface {
	Sync(ctx context.Context, records []models.Property) (models.SyncStats, error)
}

type Cleaner interface {
	RemoveDuplicates(ctx context.Context, key models.NaturalKey) (models.CleanupStats, error)
}

type Planner interface {
	Normalize(job models.TranslationJob) (models.TranslationJob, error)
}

type Backlog interface {
	CountUntranslated(ctx context.Context, langs []string, force bool, afterID int64) (int64, error)
}

type Enqueuer interface {
	Push(job models.TranslationJob) error
}

// Scheduler runs periodic catalogue maintenance
type Scheduler struct {
	syncer  Syncer
	cleaner Cleaner
	logger  *logrus.Logger

	planner Planner
	backlog Backlog
	jobs    Enqueuer

	records       func() ([]models.Property, error)
	syncOnStartup bool
	cleanupHour   int

	ctx      context.Context
	cancel   context.CancelFunc
	stopChan chan struct{}
	wg       sync.WaitGroup
	jobMutex sync.Mutex // Ensures sequential job execution
	startup  atomic.Bool
}

type Option func(*Scheduler)

// WithTranslation enables the hourly translation catch-up
func WithTranslation(planner Planner, backlog Backlog, jobs Enqueuer) Option {
	return func(s *Scheduler) {
		s.planner = planner
		s.backlog = backlog
		s.jobs = jobs
	}
}

func WithCleanupHour(hour int) Option {
	return func(s *Scheduler) { s.cleanupHour = hour }
}

func WithStartupSync(enabled bool) Option {
	return func(s *Scheduler) { s.syncOnStartup = enabled }
}

// WithRecords replaces the bundled dataset as the sync source
func WithRecords(records func() ([]models.Property, error)) Option {
	return func(s *Scheduler) { s.records = records }
}

// NewScheduler creates a new scheduler
func NewScheduler(syncer Syncer, cleaner Cleaner, logger *logrus.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		syncer:        syncer,
		cleaner:       cleaner,
		logger:        logger,
		records:       bundledRecords,
		syncOnStartup: true,
		cleanupHour:   3,
		ctx:           ctx,
		cancel:        cancel,
		stopChan:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func bundledRecords() ([]models.Property, error) {
	records, err := dataset.Load()
	if err != nil {
		return nil, err
	}
	return dataset.Properties(records), nil
}

// Start begins the scheduled tasks
func (s *Scheduler) Start() {
	s.startup.Store(true)
	s.wg.Add(2)
	go s.runStartup()
	go s.runScheduler()
}

// Stop cancels running jobs and waits for the scheduler to exit
func (s *Scheduler) Stop() {
	s.cancel()
	close(s.stopChan)
	s.wg.Wait()
}

func (s *Scheduler) runStartup() {
	defer s.wg.Done()
	defer s.startup.Store(false)

	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	if !s.syncOnStartup {
		return
	}
	s.logger.Info("Running startup sync")
	s.runSync()
}

// runScheduler checks the schedule once a minute
func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case t := <-ticker.C:
			s.executeScheduledJobs(t)
		}
	}
}

// executeScheduledJobs runs all jobs that are scheduled for the given time
func (s *Scheduler) executeScheduledJobs(t time.Time) {
	if s.startup.Load() {
		s.logger.Debug("Skipping scheduled jobs while startup is in progress")
		return
	}
	if t.Minute() != 0 {
		return
	}

	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	if t.Hour() == s.cleanupHour {
		s.runCleanup()
	}
	s.queueTranslation()
}

func (s *Scheduler) runSync() {
	records, err := s.records()
	if err != nil {
		s.logger.WithError(err).WithField("job_type", JobTypeSync.String()).Error("Failed to load sync records")
		return
	}

	stats, err := s.syncer.Sync(s.ctx, records)
	fields := logrus.Fields{
		"job_type": JobTypeSync.String(),
		"inserted": stats.Inserted,
		"updated":  stats.Updated,
		"errors":   stats.Errors,
	}
	if err != nil {
		s.logger.WithError(err).WithFields(fields).Error("Sync job failed")
		return
	}
	s.logger.WithFields(fields).Info("Sync job completed")
}

// runCleanup removes duplicates by reference number first, then by title and location
func (s *Scheduler) runCleanup() {
	for _, key := range []models.NaturalKey{models.KeyRefNo, models.KeyTitleLocation} {
		stats, err := s.cleaner.RemoveDuplicates(s.ctx, key)
		fields := logrus.Fields{
			"job_type": JobTypeCleanup.String(),
			"key":      key,
			"found":    stats.DuplicatesFound,
			"removed":  stats.DuplicatesRemoved,
		}
		if err != nil {
			s.logger.WithError(err).WithFields(fields).Error("Cleanup job failed")
			return
		}
		s.logger.WithFields(fields).Info("Cleanup job completed")
	}
}

// queueTranslation hands a full-catalogue job to the translation queue when rows are missing slugs
func (s *Scheduler) queueTranslation() {
	if s.jobs == nil {
		return
	}

	job, err := s.planner.Normalize(models.TranslationJob{})
	if err != nil {
		s.logger.WithError(err).WithField("job_type", JobTypeTranslation.String()).Error("Invalid translation job")
		return
	}

	remaining, err := s.backlog.CountUntranslated(s.ctx, job.Languages, false, 0)
	if err != nil {
		s.logger.WithError(err).WithField("job_type", JobTypeTranslation.String()).Error("Failed to count untranslated rows")
		return
	}
	if remaining == 0 {
		return
	}

	if err := s.jobs.Push(job); err != nil {
		s.logger.WithError(err).WithField("job_type", JobTypeTranslation.String()).Warn("Translation job not queued")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"job_type":  JobTypeTranslation.String(),
		"remaining": remaining,
	}).Info("Translation job queued")
}
