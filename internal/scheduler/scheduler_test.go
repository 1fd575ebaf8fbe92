package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"estateportal/server/internal/models"
	"estateportal/server/internal/queue"
)

type MockSyncer struct{ mock.Mock }

func (m *MockSyncer) Sync(ctx context.Context, records []models.Property) (models.SyncStats, error) {
	args := m.Called(ctx, records)
	return args.Get(0).(models.SyncStats), args.Error(1)
}

type MockCleaner struct{ mock.Mock }

func (m *MockCleaner) RemoveDuplicates(ctx context.Context, key models.NaturalKey) (models.CleanupStats, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(models.CleanupStats), args.Error(1)
}

type MockBacklog struct{ mock.Mock }

func (m *MockBacklog) CountUntranslated(ctx context.Context, langs []string, force bool, afterID int64) (int64, error) {
	args := m.Called(ctx, langs, force, afterID)
	return args.Get(0).(int64), args.Error(1)
}

type fixedPlanner struct{}

func (fixedPlanner) Normalize(job models.TranslationJob) (models.TranslationJob, error) {
	job.BatchSize = 10
	job.Languages = []string{"tr", "de"}
	return job, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestJobTypeString(t *testing.T) {
	assert.Equal(t, "sync", JobTypeSync.String())
	assert.Equal(t, "cleanup", JobTypeCleanup.String())
	assert.Equal(t, "translation", JobTypeTranslation.String())
	assert.Equal(t, "unknown", JobType(42).String())
}

func TestExecuteScheduledJobs(t *testing.T) {
	tests := []struct {
		name        string
		at          time.Time
		backlog     int64
		wantCleanup bool
		wantQueued  int
	}{
		{
			name:        "Cleanup hour with backlog",
			at:          time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC),
			backlog:     4,
			wantCleanup: true,
			wantQueued:  1,
		},
		{
			name:       "Other hour only queues translation",
			at:         time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC),
			backlog:    4,
			wantQueued: 1,
		},
		{
			name:    "Nothing left to translate",
			at:      time.Date(2026, 3, 1, 14, 0, 0, 0, time.UTC),
			backlog: 0,
		},
		{
			name: "Off the hour",
			at:   time.Date(2026, 3, 1, 3, 30, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaner := new(MockCleaner)
			backlog := new(MockBacklog)
			jobs := queue.NewJobQueue(4, quietLogger())
			defer jobs.Close()

			if tt.wantCleanup {
				cleaner.On("RemoveDuplicates", mock.Anything, models.KeyRefNo).
					Return(models.CleanupStats{Key: models.KeyRefNo}, nil).Once()
				cleaner.On("RemoveDuplicates", mock.Anything, models.KeyTitleLocation).
					Return(models.CleanupStats{Key: models.KeyTitleLocation}, nil).Once()
			}
			if tt.at.Minute() == 0 {
				backlog.On("CountUntranslated", mock.Anything, []string{"tr", "de"}, false, int64(0)).
					Return(tt.backlog, nil).Once()
			}

			s := NewScheduler(new(MockSyncer), cleaner, quietLogger(),
				WithCleanupHour(3),
				WithTranslation(fixedPlanner{}, backlog, jobs),
			)
			s.executeScheduledJobs(tt.at)

			cleaner.AssertExpectations(t)
			backlog.AssertExpectations(t)
			assert.Equal(t, tt.wantQueued, jobs.Len())
		})
	}
}

func TestExecuteScheduledJobs_CleanupStopsOnError(t *testing.T) {
	cleaner := new(MockCleaner)
	cleaner.On("RemoveDuplicates", mock.Anything, models.KeyRefNo).
		Return(models.CleanupStats{}, errors.New("database is locked")).Once()

	s := NewScheduler(new(MockSyncer), cleaner, quietLogger(), WithCleanupHour(0))
	s.executeScheduledJobs(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	cleaner.AssertExpectations(t)
	cleaner.AssertNotCalled(t, "RemoveDuplicates", mock.Anything, models.KeyTitleLocation)
}

func TestExecuteScheduledJobs_SkippedDuringStartup(t *testing.T) {
	cleaner := new(MockCleaner)
	s := NewScheduler(new(MockSyncer), cleaner, quietLogger(), WithCleanupHour(3))
	s.startup.Store(true)

	s.executeScheduledJobs(time.Date(2026, 3, 1, 3, 0, 0, 0, time.UTC))
	cleaner.AssertNotCalled(t, "RemoveDuplicates", mock.Anything, mock.Anything)
}

func TestStartRunsStartupSync(t *testing.T) {
	records := []models.Property{{Title: "Garden Villa"}}
	syncer := new(MockSyncer)
	synced := make(chan struct{})
	syncer.On("Sync", mock.Anything, records).
		Return(models.SyncStats{Total: 1, Inserted: 1}, nil).
		Run(func(mock.Arguments) { close(synced) }).Once()

	s := NewScheduler(syncer, new(MockCleaner), quietLogger(),
		WithRecords(func() ([]models.Property, error) { return records, nil }),
	)
	s.Start()

	select {
	case <-synced:
	case <-time.After(5 * time.Second):
		t.Fatal("startup sync did not run")
	}
	s.Stop()

	syncer.AssertExpectations(t)
	assert.False(t, s.startup.Load())
}

func TestStartWithoutStartupSync(t *testing.T) {
	syncer := new(MockSyncer)
	s := NewScheduler(syncer, new(MockCleaner), quietLogger(), WithStartupSync(false))
	s.Start()
	s.Stop()

	syncer.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything)
}

func TestBundledRecords(t *testing.T) {
	records, err := bundledRecords()
	assert.NoError(t, err)
	assert.Len(t, records, 12)
}
