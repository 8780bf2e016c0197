package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/event"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/repository"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/logger"
)

// DefaultMergeLockTTL bounds how long one merge may hold the pair lock.
const DefaultMergeLockTTL = 30 * time.Second

// MergeService folds an anonymous session's cart and wishlist into the
// account that just signed in.
type MergeService struct {
	carts     repository.CartRepository
	wishlists repository.WishlistRepository
	lock      repository.MergeLock
	producer  *event.Producer
	currency  string
	lockTTL   time.Duration
	logger    *slog.Logger
}

// NewMergeService creates a merge service. lock may be nil, in which case
// concurrent merges of the same pair are not serialised.
func NewMergeService(
	carts repository.CartRepository,
	wishlists repository.WishlistRepository,
	lock repository.MergeLock,
	producer *event.Producer,
	currency string,
	lockTTL time.Duration,
	logger *slog.Logger,
) *MergeService {
	if lockTTL <= 0 {
		lockTTL = DefaultMergeLockTTL
	}
	return &MergeService{
		carts:     carts,
		wishlists: wishlists,
		lock:      lock,
		producer:  producer,
		currency:  currency,
		lockTTL:   lockTTL,
		logger:    logger,
	}
}

// MergeSession moves everything the session owns to the user. Rows are
// handled one at a time; a row that fails stays with the session and is
// listed in the report, and the rest carry on. Running it again after a
// complete merge finds nothing to move.
func (s *MergeService) MergeSession(ctx context.Context, sessionID, userID string) (*domain.SessionMergeResult, error) {
	if sessionID == "" || userID == "" {
		return nil, apperrors.InvalidInput("merge requires both a session id and a user id")
	}
	log := logger.WithContext(ctx, s.logger).With(
		slog.String("session_id", sessionID),
		slog.String("user_id", userID),
	)

	if s.lock != nil {
		release, err := s.lock.Acquire(ctx, sessionID, userID, s.lockTTL)
		switch {
		case errors.Is(err, apperrors.ErrConflict):
			mergeRuns.WithLabelValues("busy").Inc()
			return nil, err
		case err != nil:
			log.WarnContext(ctx, "merge lock unavailable, merging unlocked", slog.String("error", err.Error()))
		default:
			defer func() {
				if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
					log.WarnContext(ctx, "failed to release merge lock", slog.String("error", rerr.Error()))
				}
			}()
		}
	}

	anon := domain.SessionOwner(sessionID)
	user := domain.UserOwner(userID)

	cartReport, err := s.mergeCart(ctx, anon, user)
	if err != nil {
		mergeRuns.WithLabelValues("error").Inc()
		return nil, err
	}
	wishReport, err := s.mergeWishlist(ctx, anon, user)
	if err != nil {
		mergeRuns.WithLabelValues("error").Inc()
		return nil, err
	}

	lines, err := s.carts.ListByOwner(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("reload cart: %w", err)
	}
	entries, err := s.wishlists.ListByOwner(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("reload wishlist: %w", err)
	}

	result := &domain.SessionMergeResult{
		Cart:           domain.NewCart(user, lines, s.currency),
		Wishlist:       entries,
		CartReport:     cartReport,
		WishlistReport: wishReport,
	}

	if cartReport.Partial() || wishReport.Partial() {
		mergeRuns.WithLabelValues("partial").Inc()
	} else {
		mergeRuns.WithLabelValues("ok").Inc()
	}

	if cartReport.Scanned+wishReport.Scanned > 0 {
		data := event.CartMergedData{
			SessionID:           sessionID,
			UserID:              userID,
			CartSummed:          cartReport.Summed,
			CartTransferred:     cartReport.Transferred,
			WishlistDropped:     wishReport.Summed,
			WishlistTransferred: wishReport.Transferred,
			Failed:              len(cartReport.Failures) + len(wishReport.Failures),
		}
		if err := s.producer.PublishCartMerged(ctx, data); err != nil {
			log.ErrorContext(ctx, "failed to publish cart merged event", slog.String("error", err.Error()))
		}
	}

	log.InfoContext(ctx, "session merged",
		slog.Int("cart_summed", cartReport.Summed),
		slog.Int("cart_transferred", cartReport.Transferred),
		slog.Int("wishlist_dropped", wishReport.Summed),
		slog.Int("wishlist_transferred", wishReport.Transferred),
		slog.Int("failed", len(cartReport.Failures)+len(wishReport.Failures)),
	)
	return result, nil
}

func (s *MergeService) mergeCart(ctx context.Context, anon, user domain.Owner) (domain.MergeReport, error) {
	var report domain.MergeReport

	anonLines, err := s.carts.ListByOwner(ctx, anon)
	if err != nil {
		return report, fmt.Errorf("load session cart: %w", err)
	}
	if len(anonLines) == 0 {
		return report, nil
	}
	userLines, err := s.carts.ListByOwner(ctx, user)
	if err != nil {
		return report, fmt.Errorf("load user cart: %w", err)
	}
	existing := domain.CartLineByProduct(userLines)

	for _, line := range anonLines {
		report.Scanned++
		if target, ok := existing[line.ProductID]; ok {
			if _, err := s.carts.Absorb(ctx, anon, line.ID, user, target.ID); err != nil {
				report.Failures = append(report.Failures, s.failure(ctx, "cart", "sum", line.ID, line.ProductID, err))
				continue
			}
			report.Summed++
			mergeRows.WithLabelValues("cart", "summed").Inc()
			continue
		}
		if err := s.carts.Reassign(ctx, line.ID, anon, user); err != nil {
			report.Failures = append(report.Failures, s.failure(ctx, "cart", "transfer", line.ID, line.ProductID, err))
			continue
		}
		report.Transferred++
		mergeRows.WithLabelValues("cart", "transferred").Inc()
	}
	return report, nil
}

func (s *MergeService) mergeWishlist(ctx context.Context, anon, user domain.Owner) (domain.MergeReport, error) {
	var report domain.MergeReport

	anonEntries, err := s.wishlists.ListByOwner(ctx, anon)
	if err != nil {
		return report, fmt.Errorf("load session wishlist: %w", err)
	}
	if len(anonEntries) == 0 {
		return report, nil
	}
	userEntries, err := s.wishlists.ListByOwner(ctx, user)
	if err != nil {
		return report, fmt.Errorf("load user wishlist: %w", err)
	}
	saved := make(map[string]struct{}, len(userEntries))
	for _, e := range userEntries {
		saved[e.ProductID.String()] = struct{}{}
	}

	for _, entry := range anonEntries {
		report.Scanned++
		if _, ok := saved[entry.ProductID.String()]; ok {
			if err := s.wishlists.DeleteByID(ctx, anon, entry.ID); err != nil {
				report.Failures = append(report.Failures, s.failure(ctx, "wishlist", "drop", entry.ID, entry.ProductID, err))
				continue
			}
			report.Summed++
			mergeRows.WithLabelValues("wishlist", "dropped").Inc()
			continue
		}
		if err := s.wishlists.Reassign(ctx, entry.ID, anon, user); err != nil {
			report.Failures = append(report.Failures, s.failure(ctx, "wishlist", "transfer", entry.ID, entry.ProductID, err))
			continue
		}
		report.Transferred++
		mergeRows.WithLabelValues("wishlist", "transferred").Inc()
	}
	return report, nil
}

func (s *MergeService) failure(ctx context.Context, collection, step string, id, productID uuid.UUID, err error) domain.MergeFailure {
	mergeRows.WithLabelValues(collection, "failed").Inc()
	logger.WithContext(ctx, s.logger).WarnContext(ctx, "merge row failed",
		slog.String("collection", collection),
		slog.String("step", step),
		slog.String("row_id", id.String()),
		slog.String("product_id", productID.String()),
		slog.String("error", err.Error()),
	)
	return domain.MergeFailure{
		LineID:    id,
		ProductID: productID,
		Step:      collection + "." + step,
		Error:     err.Error(),
	}
}
