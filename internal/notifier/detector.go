package notifier

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/C4NU/hanavi-schedule/internal/domain"
)

// SourceFetcher produces the authoritative weekly schedule from the external
// source, or an error when the source is unavailable.
type SourceFetcher interface {
	Fetch(ctx context.Context) (*domain.WeeklySchedule, error)
}

// ErrScheduleUnavailable is returned when the upstream source yields nothing.
// Callers must treat it as "try again later", never as "no change".
var ErrScheduleUnavailable = errors.New("failed to fetch schedule")

type DetectResult struct {
	Changed bool   `json:"changed"`
	Hash    string `json:"hash"`
}

// Detector decides once per invocation whether the externally-sourced
// schedule differs from the last observed version, and records a pending
// notification intent without sending anything.
type Detector struct {
	fetcher SourceFetcher
	state   StateStore
}

func NewDetector(fetcher SourceFetcher, state StateStore) *Detector {
	return &Detector{
		fetcher: fetcher,
		state:   state,
	}
}

func (d *Detector) Detect(ctx context.Context) (*DetectResult, error) {
	schedule, err := d.fetcher.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrScheduleUnavailable, err)
	}
	if schedule == nil {
		return nil, ErrScheduleUnavailable
	}

	hash, err := HashSchedule(schedule)
	if err != nil {
		return nil, err
	}

	changed, err := d.state.RecordChange(ctx, hash)
	if err != nil {
		return nil, err
	}

	return &DetectResult{Changed: changed, Hash: hash}, nil
}

// HashSchedule computes the content hash of a schedule. encoding/json
// serializes struct fields in declaration order and map keys sorted, so the
// digest is deterministic for logically equal schedules.
func HashSchedule(ws *domain.WeeklySchedule) (string, error) {
	raw, err := json.Marshal(ws)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
