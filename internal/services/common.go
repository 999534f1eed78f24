package services

import (
	"context"
	"errors"

	"open-factcheck/internal/apperr"
	"open-factcheck/internal/events"
	"open-factcheck/internal/logger"
	"open-factcheck/internal/metrics"
	"open-factcheck/internal/models"
	"open-factcheck/internal/policy"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// loadActor resolves a user id into an actor and applies the access policy
func loadActor(ctx context.Context, tx *gorm.DB, userID uuid.UUID, action policy.Action) (policy.Actor, error) {
	var user models.User
	err := tx.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return policy.Actor{}, apperr.NotFound("user %s not found", userID)
	}
	if err != nil {
		return policy.Actor{}, apperr.ServerFault(err, "failed to load user")
	}

	actor := policy.ActorFromUser(&user)
	if err := policy.Check(actor, action); err != nil {
		metrics.IncDenied(string(action))
		return actor, err
	}
	return actor, nil
}

// lockActiveClaim loads an active claim and takes a row lock for the rest of
// the transaction (sqlite has no row locks and serialises writers instead)
func lockActiveClaim(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (*models.Claim, error) {
	var claim models.Claim
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND is_active = ?", claimID, true).
		First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("claim %s not found", claimID)
	}
	if err != nil {
		return nil, apperr.ServerFault(err, "failed to load claim")
	}
	return &claim, nil
}

// loadClaim reads a claim with its judgment history in order
func loadClaim(ctx context.Context, tx *gorm.DB, claimID uuid.UUID) (*models.Claim, error) {
	var claim models.Claim
	err := tx.WithContext(ctx).
		Preload("Judgments", orderJudgments).
		Where("id = ?", claimID).
		First(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("claim %s not found", claimID)
	}
	if err != nil {
		return nil, apperr.ServerFault(err, "failed to load claim")
	}
	return &claim, nil
}

func orderJudgments(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC").Order("id ASC")
}

// fault logs unexpected errors and makes sure everything leaving a service is
// an *apperr.Error
func fault(log *logger.Logger, err error, msg string, keysAndValues ...interface{}) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		if appErr.Kind == apperr.KindServerFault {
			log.Error(msg, append(keysAndValues, "error", err)...)
		}
		return err
	}
	log.Error(msg, append(keysAndValues, "error", err)...)
	return apperr.ServerFault(err, "%s", msg)
}

// publish sends an event, logging delivery failures instead of failing the
// already-committed operation
func publish(ctx context.Context, log *logger.Logger, pub events.Publisher, ev events.Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		log.Warn("Failed to publish event", "type", ev.Type, "claim_id", ev.ClaimID, "error", err)
	}
}
