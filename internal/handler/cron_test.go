package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/C4NU/hanavi-schedule/internal/config"
	"github.com/C4NU/hanavi-schedule/internal/domain"
	"github.com/C4NU/hanavi-schedule/internal/notifier"
)

type stubFetcher struct {
	schedule *domain.WeeklySchedule
	err      error
}

func (s *stubFetcher) Fetch(ctx context.Context) (*domain.WeeklySchedule, error) {
	return s.schedule, s.err
}

type stubState struct {
	state domain.NotificationState
}

func (s *stubState) Get(ctx context.Context) (*domain.NotificationState, error) {
	snapshot := s.state
	return &snapshot, nil
}

func (s *stubState) RecordChange(ctx context.Context, hash string) (bool, error) {
	if s.state.LastScheduleHash == hash {
		return false, nil
	}
	s.state.LastScheduleHash = hash
	s.state.PendingHash = hash
	s.state.PendingFlag = true
	return true, nil
}

func (s *stubState) MarkPending(ctx context.Context, hash string) error {
	s.state.PendingHash = hash
	s.state.PendingFlag = true
	return nil
}

func (s *stubState) ClearPending(ctx context.Context, consumedHash string) error {
	s.state.PendingFlag = false
	if consumedHash != "" {
		s.state.LastNotifiedHash = consumedHash
	}
	s.state.LastNotifiedAt = time.Now().UTC().Format(time.RFC3339)
	return nil
}

type stubRegistry struct {
	tokens []string
}

func (s *stubRegistry) GetAllPushTokens() ([]string, error) { return s.tokens, nil }

func (s *stubRegistry) DeletePushTokens(tokens []string) error { return nil }

type stubSender struct {
	sent int
}

func (s *stubSender) SendMulticast(ctx context.Context, tokens []string, msg domain.PushMessage) (*notifier.MulticastResult, error) {
	s.sent += len(tokens)
	return &notifier.MulticastResult{SuccessCount: len(tokens)}, nil
}

func testWeek() *domain.WeeklySchedule {
	return &domain.WeeklySchedule{
		WeekRange: "01.05 - 01.11",
		Characters: []domain.CharacterSchedule{{
			Character: domain.Character{ID: "varessa", Name: "바레사"},
			Schedule: map[string]domain.ScheduleItem{
				domain.DayMon: {Time: "08:00", Type: domain.ItemTypeStream},
			},
		}},
	}
}

func newCronTestHandler(t *testing.T, fetcher notifier.SourceFetcher, state notifier.StateStore, sender notifier.Sender, tokens []string) *Handler {
	t.Helper()

	cfg := &config.Config{}
	cfg.Cron.Secret = "cron-secret"
	cfg.Push.Icon = "/icon-192x192.png"

	detector := notifier.NewDetector(fetcher, state)
	dispatcher := notifier.NewDispatcher(state, &stubRegistry{tokens: tokens}, sender, 500, cfg.Push.Icon)

	h, err := NewHandler(cfg, nil, nil, detector, dispatcher)
	require.NoError(t, err)
	h.RegisterRoutes()
	return h
}

func doCron(h *Handler, mode string, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/cron/check-schedule?mode="+mode, nil)
	if secret != "" {
		req.Header.Set("Authorization", "Bearer "+secret)
	}
	rec := httptest.NewRecorder()
	h.Mux.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCheckSchedule_RejectsWrongSecret(t *testing.T) {
	h := newCronTestHandler(t, &stubFetcher{schedule: testWeek()}, &stubState{}, &stubSender{}, nil)

	rec := doCron(h, "detect", "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doCron(h, "detect", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckSchedule_SecretIsCaseSensitive(t *testing.T) {
	h := newCronTestHandler(t, &stubFetcher{schedule: testWeek()}, &stubState{}, &stubSender{}, nil)

	rec := doCron(h, "detect", "CRON-SECRET")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckSchedule_DetectModeSetsPendingOnly(t *testing.T) {
	state := &stubState{}
	sender := &stubSender{}
	h := newCronTestHandler(t, &stubFetcher{schedule: testWeek()}, state, sender, []string{"t1"})

	rec := doCron(h, "detect", "cron-secret")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "Change detected. Pending flag set.", resp.Message)
	assert.True(t, state.state.PendingFlag)
	assert.Zero(t, sender.sent, "detect mode must not send")
}

func TestCheckSchedule_DetectModeNoChange(t *testing.T) {
	state := &stubState{}
	h := newCronTestHandler(t, &stubFetcher{schedule: testWeek()}, state, &stubSender{}, nil)

	doCron(h, "detect", "cron-secret")
	rec := doCron(h, "detect", "cron-secret")

	resp := decodeResponse(t, rec)
	assert.Equal(t, "No changes detected (detect mode).", resp.Message)
}

func TestCheckSchedule_NotifyModeIsStrictNoOpWithoutPending(t *testing.T) {
	state := &stubState{state: domain.NotificationState{LastScheduleHash: "abc"}}
	sender := &stubSender{}
	h := newCronTestHandler(t, &stubFetcher{schedule: testWeek()}, state, sender, []string{"t1"})

	rec := doCron(h, "notify", "cron-secret")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeResponse(t, rec)
	assert.Equal(t, "No pending notifications.", resp.Message)
	assert.Zero(t, sender.sent)
}

func TestCheckSchedule_NotifyModeDeliversPending(t *testing.T) {
	state := &stubState{state: domain.NotificationState{
		LastScheduleHash: "abc",
		PendingHash:      "abc",
		PendingFlag:      true,
	}}
	sender := &stubSender{}
	h := newCronTestHandler(t, &stubFetcher{schedule: testWeek()}, state, sender, []string{"t1", "t2"})

	rec := doCron(h, "notify", "cron-secret")
	resp := decodeResponse(t, rec)

	assert.True(t, resp.Success)
	assert.Equal(t, 2, sender.sent)
	assert.False(t, state.state.PendingFlag)
	assert.Equal(t, "abc", state.state.LastNotifiedHash)
}

func TestCheckSchedule_DirectModeDetectsAndNotifies(t *testing.T) {
	state := &stubState{}
	sender := &stubSender{}
	h := newCronTestHandler(t, &stubFetcher{schedule: testWeek()}, state, sender, []string{"t1"})

	rec := doCron(h, "direct", "cron-secret")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, sender.sent)
	assert.False(t, state.state.PendingFlag)
	assert.NotEmpty(t, state.state.LastNotifiedHash)
}

func TestCheckSchedule_SourceOutageIsRetryable(t *testing.T) {
	state := &stubState{}
	h := newCronTestHandler(t, &stubFetcher{err: errors.New("quota exceeded")}, state, &stubSender{}, nil)

	rec := doCron(h, "direct", "cron-secret")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, state.state.LastScheduleHash, "a failed fetch must not update state")
}

func TestCheckSchedule_UnknownMode(t *testing.T) {
	h := newCronTestHandler(t, &stubFetcher{schedule: testWeek()}, &stubState{}, &stubSender{}, nil)

	rec := doCron(h, "bogus", "cron-secret")
	resp := decodeResponse(t, rec)

	assert.False(t, resp.Success)
	assert.Equal(t, "unknown mode", resp.Message)
}
