package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/C4NU/hanavi-schedule/internal/domain"
)

// TokenRegistry is the registered-endpoint surface the dispatcher reconciles.
type TokenRegistry interface {
	GetAllPushTokens() ([]string, error)
	DeletePushTokens(tokens []string) error
}

// MulticastResult is the outcome of one batched provider call.
// PermanentFailures lists the tokens the provider reported as gone for good;
// transient failures are only counted.
type MulticastResult struct {
	SuccessCount      int
	FailureCount      int
	PermanentFailures []string
}

// Sender delivers one message to a batch of tokens.
type Sender interface {
	SendMulticast(ctx context.Context, tokens []string, msg domain.PushMessage) (*MulticastResult, error)
}

// Dispatcher fans a notification out to every registered endpoint in bounded
// batches and prunes endpoints the provider reports as permanently invalid.
type Dispatcher struct {
	state     StateStore
	registry  TokenRegistry
	sender    Sender
	batchSize int
	icon      string
}

func NewDispatcher(state StateStore, registry TokenRegistry, sender Sender, batchSize int, icon string) *Dispatcher {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Dispatcher{
		state:     state,
		registry:  registry,
		sender:    sender,
		batchSize: batchSize,
		icon:      icon,
	}
}

// NotifyPending delivers the stock update message if and only if a pending
// change is recorded. Without the pending flag this is a strict no-op: the
// dispatcher never substitutes the last known hash for a missing pending
// hash, so an already-notified change cannot be re-sent.
func (d *Dispatcher) NotifyPending(ctx context.Context) (*domain.DispatchReport, error) {
	state, err := d.state.Get(ctx)
	if err != nil {
		return nil, err
	}
	if !state.PendingFlag {
		return &domain.DispatchReport{Skipped: true, Message: "No pending notifications."}, nil
	}

	return d.deliver(ctx, state.PendingHash, domain.DefaultUpdateMessage(d.icon), true)
}

// Send fans out a custom message immediately. It neither consults nor clears
// the pending flag; manual sends are independent of the change cycle.
func (d *Dispatcher) Send(ctx context.Context, msg domain.PushMessage) (*domain.DispatchReport, error) {
	if msg.Icon == "" {
		msg.Icon = d.icon
	}
	return d.deliver(ctx, "", msg, false)
}

func (d *Dispatcher) deliver(ctx context.Context, pendingHash string, msg domain.PushMessage, clearFlag bool) (*domain.DispatchReport, error) {
	tokens, err := d.registry.GetAllPushTokens()
	if err != nil {
		return nil, err
	}

	// An empty audience is still "notified": the pending cycle must end even
	// when there is nobody to tell.
	if len(tokens) == 0 {
		if clearFlag {
			if err := d.state.ClearPending(ctx, pendingHash); err != nil {
				return nil, err
			}
			return &domain.DispatchReport{Message: "No subscribers, cleared pending flag", Hash: pendingHash}, nil
		}
		return &domain.DispatchReport{Message: "No subscriptions found"}, nil
	}

	var successCount, failureCount, prunedCount int

	for start := 0; start < len(tokens); start += d.batchSize {
		end := start + d.batchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		result, err := d.sender.SendMulticast(ctx, batch, msg)
		if err != nil {
			// A failed batch is absorbed: counted in the log, retried only by
			// the next detected change.
			slog.Error("multicast send failed", "batch_size", len(batch), "error", err)
			continue
		}

		successCount += result.SuccessCount
		failureCount += result.FailureCount

		// Prune only on an explicit permanent-failure signal, and only
		// within this batch's own tokens.
		if len(result.PermanentFailures) > 0 {
			if err := d.registry.DeletePushTokens(result.PermanentFailures); err != nil {
				slog.Error("failed to prune dead push tokens", "count", len(result.PermanentFailures), "error", err)
			} else {
				prunedCount += len(result.PermanentFailures)
			}
		}
	}

	if clearFlag {
		// The flag clears regardless of partial failures, with the hash
		// captured before dispatch began.
		if err := d.state.ClearPending(ctx, pendingHash); err != nil {
			return nil, err
		}
	}

	return &domain.DispatchReport{
		Message:      fmt.Sprintf("Notifications sent to %d devices. Failed: %d", successCount, failureCount),
		SuccessCount: successCount,
		FailureCount: failureCount,
		PrunedCount:  prunedCount,
		Hash:         pendingHash,
	}, nil
}
