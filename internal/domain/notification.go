package domain

import "time"

// NotificationState is the durable change-tracking record shared by the
// detector and the dispatcher. Timestamps are kept as the RFC 3339 strings
// they are stored as; the record is merge-updated field by field.
type NotificationState struct {
	LastScheduleHash string
	PendingHash      string
	PendingFlag      bool
	LastNotifiedHash string
	LastChangeAt     string
	LastNotifiedAt   string
	UpdatedAt        string
}

// PushMessage is a provider-agnostic notification payload.
type PushMessage struct {
	Title string
	Body  string
	Icon  string
}

// DefaultUpdateMessage is the stock message sent when the schedule changes.
func DefaultUpdateMessage(icon string) PushMessage {
	return PushMessage{
		Title: "하나비 스케줄 업데이트 🔔",
		Body:  "스케줄이 변경되었습니다. 확인해보세요!",
		Icon:  icon,
	}
}

// DispatchReport is the structured outcome of one dispatcher run. Partial
// delivery failures are counted here, never raised as errors.
type DispatchReport struct {
	Skipped      bool   `json:"skipped,omitempty"`
	Message      string `json:"message"`
	SuccessCount int    `json:"successCount"`
	FailureCount int    `json:"failureCount"`
	PrunedCount  int    `json:"prunedCount"`
	Hash         string `json:"lastHash,omitempty"`
}

const EventScheduleChanged = "schedule_changed"

// ChangeEvent is one entry of the append-only change log published to the
// schedule_events queue. Both the save boundary and the cron detector
// produce these; the notify worker consumes them.
type ChangeEvent struct {
	Type       string    `json:"type"`
	Hash       string    `json:"hash"`
	Source     string    `json:"source"`
	WeekRange  string    `json:"weekRange,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type PushToken struct {
	Token     string    `json:"token"`
	UserAgent string    `json:"userAgent,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}
