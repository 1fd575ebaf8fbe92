package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"estateportal/server/internal/models"
)

// MockStore is a mock implementation of Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListKeyed(ctx context.Context, key models.NaturalKey) ([]models.Property, error) {
	args := m.Called(ctx, key)
	rows, _ := args.Get(0).([]models.Property)
	return rows, args.Error(1)
}

func (m *MockStore) ListDuplicateGroup(ctx context.Context, key models.NaturalKey, member models.Property) ([]models.Property, error) {
	args := m.Called(ctx, key, member)
	rows, _ := args.Get(0).([]models.Property)
	return rows, args.Error(1)
}

func (m *MockStore) DeleteProperties(ctx context.Context, ids []int64) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStore) FindActiveByTitleLocation(ctx context.Context, title, location string) ([]models.Property, error) {
	args := m.Called(ctx, title, location)
	rows, _ := args.Get(0).([]models.Property)
	return rows, args.Error(1)
}

func (m *MockStore) FindActiveByRefNo(ctx context.Context, refNo string) ([]models.Property, error) {
	args := m.Called(ctx, refNo)
	rows, _ := args.Get(0).([]models.Property)
	return rows, args.Error(1)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func ref(s string) *string { return &s }

var (
	t1 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	t2 = t1.Add(24 * time.Hour)
	t3 = t2.Add(24 * time.Hour)
)

func TestRemoveDuplicates_KeepsEarliest(t *testing.T) {
	store := &MockStore{}
	ctx := context.Background()

	older := models.Property{ID: 2, RefNo: ref("A1"), CreatedAt: t1}
	newer := models.Property{ID: 1, RefNo: ref("A1"), CreatedAt: t2}

	store.On("ListKeyed", ctx, models.KeyRefNo).Return([]models.Property{newer, older}, nil)
	// The store returns the group unordered; the cleaner must still keep the t1 row
	store.On("ListDuplicateGroup", ctx, models.KeyRefNo, newer).Return([]models.Property{newer, older}, nil)
	store.On("DeleteProperties", ctx, []int64{1}).Return(int64(1), nil)

	stats, err := NewCleaner(store, quietLogger()).RemoveDuplicates(ctx, models.KeyRefNo)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.DuplicatesFound)
	assert.Equal(t, 1, stats.DuplicatesRemoved)
	assert.Equal(t, 0, stats.Errors)
	require.Len(t, stats.Groups, 1)
	assert.Equal(t, int64(2), stats.Groups[0].KeptID)
	assert.Equal(t, []int64{1}, stats.Groups[0].Removed)
	store.AssertExpectations(t)
}

func TestRemoveDuplicates_TieBrokenByID(t *testing.T) {
	store := &MockStore{}
	ctx := context.Background()

	a := models.Property{ID: 5, RefNo: ref("B2"), CreatedAt: t1}
	b := models.Property{ID: 3, RefNo: ref("B2"), CreatedAt: t1}
	c := models.Property{ID: 4, RefNo: ref("B2"), CreatedAt: t3}

	store.On("ListKeyed", ctx, models.KeyRefNo).Return([]models.Property{a, b, c}, nil)
	store.On("ListDuplicateGroup", ctx, models.KeyRefNo, a).Return([]models.Property{a, b, c}, nil)
	store.On("DeleteProperties", ctx, []int64{5, 4}).Return(int64(2), nil)

	stats, err := NewCleaner(store, quietLogger()).RemoveDuplicates(ctx, models.KeyRefNo)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.DuplicatesFound)
	assert.Equal(t, 2, stats.DuplicatesRemoved)
	assert.Equal(t, int64(3), stats.Groups[0].KeptID)
}

func TestRemoveDuplicates_ContinuesAfterGroupError(t *testing.T) {
	store := &MockStore{}
	ctx := context.Background()

	rows := []models.Property{
		{ID: 1, Title: "Villa", Location: "Kemer", CreatedAt: t1},
		{ID: 2, Title: "villa ", Location: "KEMER", CreatedAt: t2},
		{ID: 3, Title: "Flat", Location: "Alanya", CreatedAt: t1},
		{ID: 4, Title: "Flat", Location: "Alanya", CreatedAt: t2},
		{ID: 5, Title: "Flat", Location: "Alanya", CreatedAt: t3},
		{ID: 6, Title: "Unique", Location: "Ubud", CreatedAt: t1},
		{ID: 7, Title: "No location", Location: "", CreatedAt: t1},
		{ID: 8, Title: "No location", Location: "", CreatedAt: t2},
	}

	store.On("ListKeyed", ctx, models.KeyTitleLocation).Return(rows, nil)
	store.On("ListDuplicateGroup", ctx, models.KeyTitleLocation, rows[0]).
		Return(nil, errors.New("connection reset"))
	store.On("ListDuplicateGroup", ctx, models.KeyTitleLocation, rows[2]).
		Return(rows[2:5], nil)
	store.On("DeleteProperties", ctx, []int64{4, 5}).Return(int64(2), nil)

	stats, err := NewCleaner(store, quietLogger()).RemoveDuplicates(ctx, models.KeyTitleLocation)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.GroupsScanned)
	assert.Equal(t, 3, stats.DuplicatesFound, "counted for failed groups too")
	assert.Equal(t, 2, stats.DuplicatesRemoved)
	assert.Equal(t, 1, stats.Errors)
	require.Len(t, stats.Groups, 2)
	assert.Equal(t, "villa|kemer", stats.Groups[0].Key)
	assert.Equal(t, "connection reset", stats.Groups[0].Error)
	assert.Equal(t, int64(3), stats.Groups[1].KeptID)
	store.AssertExpectations(t)
}

func TestRemoveDuplicates_CountsCurrentGroup(t *testing.T) {
	tests := []struct {
		name        string
		reread      []int
		wantFound   int
		wantRemoved []int64
	}{
		{name: "Row deleted since the scan", reread: []int{0, 1}, wantFound: 1, wantRemoved: []int64{2}},
		{name: "Only one row left", reread: []int{0}, wantFound: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockStore{}
			ctx := context.Background()

			rows := []models.Property{
				{ID: 1, RefNo: ref("D4"), CreatedAt: t1},
				{ID: 2, RefNo: ref("D4"), CreatedAt: t2},
				{ID: 3, RefNo: ref("D4"), CreatedAt: t3},
			}
			current := make([]models.Property, 0, len(tt.reread))
			for _, i := range tt.reread {
				current = append(current, rows[i])
			}

			store.On("ListKeyed", ctx, models.KeyRefNo).Return(rows, nil)
			store.On("ListDuplicateGroup", ctx, models.KeyRefNo, rows[0]).Return(current, nil)
			if tt.wantRemoved != nil {
				store.On("DeleteProperties", ctx, tt.wantRemoved).Return(int64(len(tt.wantRemoved)), nil)
			}

			stats, err := NewCleaner(store, quietLogger()).RemoveDuplicates(ctx, models.KeyRefNo)
			require.NoError(t, err)

			require.Len(t, stats.Groups, 1)
			assert.Equal(t, len(current), stats.Groups[0].Members)
			assert.Equal(t, tt.wantFound, stats.DuplicatesFound)
			assert.Equal(t, len(tt.wantRemoved), stats.DuplicatesRemoved)
			store.AssertExpectations(t)
		})
	}
}

func TestRemoveDuplicates_DeleteError(t *testing.T) {
	store := &MockStore{}
	ctx := context.Background()

	rows := []models.Property{
		{ID: 1, RefNo: ref("C3"), CreatedAt: t1},
		{ID: 2, RefNo: ref("C3"), CreatedAt: t2},
	}
	store.On("ListKeyed", ctx, models.KeyRefNo).Return(rows, nil)
	store.On("ListDuplicateGroup", ctx, models.KeyRefNo, rows[0]).Return(rows, nil)
	store.On("DeleteProperties", ctx, []int64{2}).Return(int64(0), errors.New("permission denied"))

	stats, err := NewCleaner(store, quietLogger()).RemoveDuplicates(ctx, models.KeyRefNo)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DuplicatesFound)
	assert.Equal(t, 0, stats.DuplicatesRemoved)
	assert.Equal(t, 1, stats.Errors)
}

func TestRemoveDuplicates_StopsOnCancel(t *testing.T) {
	store := &MockStore{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := []models.Property{
		{ID: 1, RefNo: ref("D4"), CreatedAt: t1},
		{ID: 2, RefNo: ref("D4"), CreatedAt: t2},
	}
	store.On("ListKeyed", ctx, models.KeyRefNo).Return(rows, nil)

	stats, err := NewCleaner(store, quietLogger()).RemoveDuplicates(ctx, models.KeyRefNo)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.GroupsScanned)
	store.AssertNotCalled(t, "DeleteProperties", mock.Anything, mock.Anything)
}

func TestRemoveDuplicates_Errors(t *testing.T) {
	store := &MockStore{}
	ctx := context.Background()
	cleaner := NewCleaner(store, quietLogger())

	_, err := cleaner.RemoveDuplicates(ctx, models.NaturalKey("price"))
	assert.Error(t, err)

	store.On("ListKeyed", ctx, models.KeyRefNo).Return(nil, errors.New("timeout"))
	_, err = cleaner.RemoveDuplicates(ctx, models.KeyRefNo)
	assert.ErrorContains(t, err, "timeout")
}

func TestCheckBeforeInsert(t *testing.T) {
	store := &MockStore{}
	ctx := context.Background()

	byTitle := []models.Property{{ID: 1, Title: "Villa", Location: "Kemer", IsActive: true}}
	byRef := []models.Property{{ID: 2, RefNo: ref("AN-1"), IsActive: true}, {ID: 3, RefNo: ref("AN-1"), IsActive: true}}

	store.On("FindActiveByTitleLocation", ctx, "Villa", "Kemer").Return(byTitle, nil)
	store.On("FindActiveByRefNo", ctx, "AN-1").Return(byRef, nil)

	check, err := NewCleaner(store, quietLogger()).CheckBeforeInsert(ctx, "Villa", "Kemer", "AN-1")
	require.NoError(t, err)

	assert.True(t, check.HasDuplicates)
	require.Len(t, check.Matches, 2)
	assert.Equal(t, models.KeyTitleLocation, check.Matches[0].Type)
	assert.Equal(t, 1, check.Matches[0].Count)
	assert.Equal(t, models.KeyRefNo, check.Matches[1].Type)
	assert.Equal(t, 2, check.Matches[1].Count)
	assert.Equal(t, 3, check.Total())
}

func TestCheckBeforeInsert_NoMatches(t *testing.T) {
	store := &MockStore{}
	ctx := context.Background()

	store.On("FindActiveByTitleLocation", ctx, "Flat", "Alanya").Return([]models.Property{}, nil)

	check, err := NewCleaner(store, quietLogger()).CheckBeforeInsert(ctx, "Flat", "Alanya", "")
	require.NoError(t, err)
	assert.False(t, check.HasDuplicates)
	assert.Empty(t, check.Matches)
	store.AssertNotCalled(t, "FindActiveByRefNo", mock.Anything, mock.Anything)
}
