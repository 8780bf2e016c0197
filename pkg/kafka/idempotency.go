package kafka

import (
	"context"
	"log/slog"
)

// IdempotencyStore remembers processed event IDs. Claim must be atomic:
// exactly one caller gets true for a given ID.
type IdempotencyStore interface {
	Claim(ctx context.Context, eventID string) (bool, error)
	Release(ctx context.Context, eventID string) error
}

// IdempotentHandler skips events whose ID was already claimed. A failed
// handler releases its claim so a redelivery can retry. Store errors fall
// through to processing.
func IdempotentHandler(store IdempotencyStore, topic, group string, inner Handler, logger *slog.Logger) Handler {
	return func(ctx context.Context, event *Event) error {
		if event.EventID == "" {
			return inner(ctx, event)
		}

		claimed, err := store.Claim(ctx, event.EventID)
		if err != nil {
			logger.WarnContext(ctx, "idempotency claim failed, processing anyway",
				slog.String("event_id", event.EventID),
				slog.String("error", err.Error()),
			)
			return inner(ctx, event)
		}
		if !claimed {
			ConsumerMessagesDuplicate.WithLabelValues(topic, group).Inc()
			logger.DebugContext(ctx, "skipping duplicate event", slog.String("event_id", event.EventID))
			return nil
		}

		if err := inner(ctx, event); err != nil {
			if relErr := store.Release(ctx, event.EventID); relErr != nil {
				logger.WarnContext(ctx, "idempotency release failed",
					slog.String("event_id", event.EventID),
					slog.String("error", relErr.Error()),
				)
			}
			return err
		}
		return nil
	}
}
