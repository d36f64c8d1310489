package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/C4NU/hanavi-schedule/internal/domain"
)

type fakeFetcher struct {
	schedule *domain.WeeklySchedule
	err      error
	calls    int
}

func (f *fakeFetcher) Fetch(ctx context.Context) (*domain.WeeklySchedule, error) {
	f.calls++
	return f.schedule, f.err
}

// memoryStateStore mirrors the merge-update semantics of the redis store.
type memoryStateStore struct {
	state       domain.NotificationState
	recordCalls int
}

func (m *memoryStateStore) Get(ctx context.Context) (*domain.NotificationState, error) {
	s := m.state
	return &s, nil
}

func (m *memoryStateStore) RecordChange(ctx context.Context, hash string) (bool, error) {
	m.recordCalls++
	if m.state.LastScheduleHash == hash {
		return false, nil
	}
	now := time.Now().UTC().Format(time.RFC3339)
	m.state.LastScheduleHash = hash
	m.state.PendingHash = hash
	m.state.PendingFlag = true
	m.state.LastChangeAt = now
	m.state.UpdatedAt = now
	return true, nil
}

func (m *memoryStateStore) MarkPending(ctx context.Context, hash string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	m.state.PendingHash = hash
	m.state.PendingFlag = true
	m.state.LastChangeAt = now
	m.state.UpdatedAt = now
	return nil
}

func (m *memoryStateStore) ClearPending(ctx context.Context, consumedHash string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	m.state.PendingFlag = false
	if consumedHash != "" {
		m.state.LastNotifiedHash = consumedHash
	}
	m.state.LastNotifiedAt = now
	m.state.UpdatedAt = now
	return nil
}

func sampleSchedule(weekRange string) *domain.WeeklySchedule {
	return &domain.WeeklySchedule{
		WeekRange: weekRange,
		Characters: []domain.CharacterSchedule{
			{
				Character: domain.Character{ID: "varessa", Name: "바레사"},
				Schedule: map[string]domain.ScheduleItem{
					domain.DayMon: {Time: "08:00", Type: domain.ItemTypeStream},
				},
			},
		},
	}
}

func TestDetect_FirstObservationIsAChange(t *testing.T) {
	state := &memoryStateStore{}
	detector := NewDetector(&fakeFetcher{schedule: sampleSchedule("01.05 - 01.11")}, state)

	result, err := detector.Detect(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.NotEmpty(t, result.Hash)
	assert.True(t, state.state.PendingFlag)
	assert.Equal(t, result.Hash, state.state.PendingHash)
	assert.Equal(t, result.Hash, state.state.LastScheduleHash)
}

func TestDetect_SecondRunIsIdempotent(t *testing.T) {
	state := &memoryStateStore{}
	detector := NewDetector(&fakeFetcher{schedule: sampleSchedule("01.05 - 01.11")}, state)

	first, err := detector.Detect(context.Background())
	require.NoError(t, err)
	require.True(t, first.Changed)

	// Simulate the notify step finishing between the two detections.
	require.NoError(t, state.ClearPending(context.Background(), first.Hash))
	snapshot := state.state

	second, err := detector.Detect(context.Background())
	require.NoError(t, err)

	assert.False(t, second.Changed)
	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, snapshot, state.state, "an unchanged detection must not mutate the state record")
}

func TestDetect_ChangedContentSetsNewPending(t *testing.T) {
	fetcher := &fakeFetcher{schedule: sampleSchedule("01.05 - 01.11")}
	state := &memoryStateStore{}
	detector := NewDetector(fetcher, state)

	first, err := detector.Detect(context.Background())
	require.NoError(t, err)

	fetcher.schedule = sampleSchedule("01.12 - 01.18")
	second, err := detector.Detect(context.Background())
	require.NoError(t, err)

	assert.True(t, second.Changed)
	assert.NotEqual(t, first.Hash, second.Hash)
	assert.Equal(t, second.Hash, state.state.PendingHash)
}

func TestDetect_FetchFailureTouchesNothing(t *testing.T) {
	state := &memoryStateStore{}
	detector := NewDetector(&fakeFetcher{err: errors.New("quota exceeded")}, state)

	_, err := detector.Detect(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrScheduleUnavailable)
	assert.Zero(t, state.recordCalls, "a failed fetch must not reach the state store")
	assert.Empty(t, state.state.LastScheduleHash)
}

func TestDetect_NilScheduleIsUnavailable(t *testing.T) {
	state := &memoryStateStore{}
	detector := NewDetector(&fakeFetcher{}, state)

	_, err := detector.Detect(context.Background())

	assert.ErrorIs(t, err, ErrScheduleUnavailable)
	assert.Zero(t, state.recordCalls)
}

func TestHashSchedule_DeterministicForEqualContent(t *testing.T) {
	a, err := HashSchedule(sampleSchedule("01.05 - 01.11"))
	require.NoError(t, err)
	b, err := HashSchedule(sampleSchedule("01.05 - 01.11"))
	require.NoError(t, err)

	assert.Equal(t, a, b)

	c, err := HashSchedule(sampleSchedule("01.12 - 01.18"))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
