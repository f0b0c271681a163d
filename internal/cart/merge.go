package cart

import (
	"context"
	"errors"
	"time"

	"github.com/craftmarket/storefront-backend/pkg/db/models"
	"github.com/craftmarket/storefront-backend/pkg/logger"
	"github.com/craftmarket/storefront-backend/pkg/metrics"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Merger reconciles a shopper's anonymous cart with their persistent cart at
// sign-in. OnSignIn never returns an error to its caller: a failed merge is
// logged and counted, and authentication proceeds regardless.
type Merger interface {
	OnSignIn(ctx context.Context, sessionKey string, userID uuid.UUID, accessID string)
}

// MergerParams groups dependencies for the sign-in merger.
type MergerParams struct {
	Repo    CartRepository
	Tx      txRunner
	Guard   MergeGuard
	Policy  PricingPolicy
	Logger  *logger.Logger
	Metrics *metrics.CartMetrics
}

type merger struct {
	repo    CartRepository
	tx      txRunner
	guard   MergeGuard
	policy  PricingPolicy
	log     *logger.Logger
	metrics *metrics.CartMetrics
}

// NewMerger builds the sign-in merger.
func NewMerger(params MergerParams) (Merger, error) {
	if params.Repo == nil {
		return nil, errors.New("cart repository required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Guard == nil {
		return nil, errors.New("merge guard required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	return &merger{
		repo:    params.Repo,
		tx:      params.Tx,
		guard:   params.Guard,
		policy:  params.Policy,
		log:     params.Logger,
		metrics: params.Metrics,
	}, nil
}

// OnSignIn runs the merge once per issued access token. The guard flag is set
// before any cart is touched, so a crash mid-merge burns the attempt rather
// than risking a double apply against a retried token.
func (m *merger) OnSignIn(ctx context.Context, sessionKey string, userID uuid.UUID, accessID string) {
	if userID == uuid.Nil || accessID == "" {
		return
	}

	ctx = m.log.WithSessionKey(m.log.WithUserID(ctx, userID.String()), sessionKey)

	acquired, err := m.guard.TryAcquire(ctx, accessID)
	if err != nil {
		m.log.Warn(m.log.WithField(ctx, "error", err.Error()), "cart merge guard unavailable, skipping merge")
		m.metrics.IncMerge("guard_error")
		return
	}
	if !acquired {
		m.metrics.IncMerge("duplicate")
		return
	}

	start := time.Now()
	outcome, err := m.merge(ctx, sessionKey, userID)
	m.metrics.ObserveMergeDuration(time.Since(start))
	if err != nil {
		m.log.Error(ctx, "cart merge failed", err)
		m.metrics.IncMerge("error")
		return
	}
	m.metrics.IncMerge(outcome)
	m.log.Info(m.log.WithField(ctx, "outcome", outcome), "cart merge completed")
}

// merge applies one of three cases inside a single transaction:
// no user cart (claim the anonymous one), no anonymous cart (retire the
// session key from the user cart), or both (combine lines into the user cart
// and drop the anonymous one).
func (m *merger) merge(ctx context.Context, sessionKey string, userID uuid.UUID) (string, error) {
	outcome := "noop"
	err := m.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := m.repo.WithTx(tx)

		userCart, err := repo.FindByUserID(ctx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var anonCart *models.Cart
		if sessionKey != "" {
			anonCart, err = repo.FindBySessionKey(ctx, sessionKey)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		// A session cart already owned by a user belongs to someone else's
		// earlier claim and is never merged again.
		if anonCart != nil && anonCart.UserID != nil {
			anonCart = nil
		}

		switch {
		case userCart == nil && anonCart == nil:
			return nil
		case userCart == nil:
			// Claim keeps the session key so the shopper's pre-sign-in tab
			// still resolves the same cart. The next sign-in hits the retire
			// case below.
			anonCart.UserID = &userID
			_, err = repo.Update(ctx, anonCart)
			outcome = "claimed"
			return err
		case anonCart == nil:
			if userCart.SessionKey == nil {
				return nil
			}
			userCart.SessionKey = nil
			_, err = repo.Update(ctx, userCart)
			outcome = "retired"
			return err
		default:
			merged := mergeLines(userCart.Lines, anonCart.Lines)
			userCart.Lines = merged
			applyTotals(userCart, ComputeTotals(merged, m.policy))
			if _, err := repo.Update(ctx, userCart); err != nil {
				return err
			}
			if err := repo.DeleteByID(ctx, anonCart.ID); err != nil {
				return err
			}
			if err := repo.ReplaceLines(ctx, userCart.ID, merged); err != nil {
				return err
			}
			outcome = "merged"
			return nil
		}
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// mergeLines combines two line lists, user lines first. Lines sharing a
// product id collapse into one with the quantities summed; the user cart's
// snapshot wins. Line ids are dropped so the rows are re-inserted fresh.
func mergeLines(userLines, anonLines []models.CartLine) []models.CartLine {
	merged := make([]models.CartLine, 0, len(userLines)+len(anonLines))
	byProduct := make(map[uuid.UUID]int, len(userLines))

	for _, line := range userLines {
		line.ID = uuid.Nil
		byProduct[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	for _, line := range anonLines {
		if idx, ok := byProduct[line.ProductID]; ok {
			merged[idx].Quantity += line.Quantity
			continue
		}
		line.ID = uuid.Nil
		line.CartID = uuid.Nil
		merged = append(merged, line)
	}

	renumber(merged)
	return merged
}
