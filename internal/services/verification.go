package services

import (
	"context"
	"math"
	"strings"
	"time"

	"open-factcheck/internal/apperr"
	"open-factcheck/internal/events"
	"open-factcheck/internal/logger"
	"open-factcheck/internal/metrics"
	"open-factcheck/internal/models"
	"open-factcheck/internal/policy"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Verdict is a reviewer's judgment of a claim
type Verdict struct {
	Status     models.VerificationStatus `json:"status"`
	Score      int                       `json:"score"`
	Confidence float64                   `json:"confidence"`
	Sources    []models.Source           `json:"sources"`
	Notes      string                    `json:"notes"`
}

func (v *Verdict) validate(now time.Time) error {
	errs := fieldErrors{}
	if !v.Status.IsVerdict() {
		errs.add("status", "must be one of verified, false, misleading, unverified, partially_true")
	}
	if v.Score < 0 || v.Score > MaxScore {
		errs.add("score", "must be between 0 and %d", MaxScore)
	}
	if math.IsNaN(v.Confidence) || v.Confidence < 0 || v.Confidence > 1 {
		errs.add("confidence", "must be between 0 and 1")
	}
	validateSources(v.Sources, errs)
	if len(errs) > 0 {
		return apperr.Validation(errs)
	}

	sources := make([]models.Source, len(v.Sources))
	copy(sources, v.Sources)
	v.Sources = sources
	for i := range v.Sources {
		v.Sources[i].Name = strings.TrimSpace(v.Sources[i].Name)
		if v.Sources[i].LastVerified.IsZero() {
			v.Sources[i].LastVerified = now
		}
	}
	v.Notes = strings.TrimSpace(v.Notes)
	return nil
}

// VerdictPolicy turns the current canonical verification plus a new verdict
// into the next canonical verification
type VerdictPolicy interface {
	Apply(current models.Verification, verdict Verdict, reviewerID uuid.UUID, now time.Time) models.Verification
}

// LastWriteWins makes the latest verdict canonical regardless of earlier
// ones. Dissenting verdicts survive only in the judgment history.
type LastWriteWins struct{}

func (LastWriteWins) Apply(_ models.Verification, v Verdict, reviewerID uuid.UUID, now time.Time) models.Verification {
	sources := make(datatypes.JSONSlice[models.Source], len(v.Sources))
	copy(sources, v.Sources)
	reviewer := reviewerID
	at := now
	return models.Verification{
		Status:     v.Status,
		Score:      v.Score,
		Confidence: v.Confidence,
		Sources:    sources,
		Notes:      v.Notes,
		VerifiedBy: &reviewer,
		Date:       &at,
	}
}

// VerificationService applies reviewer verdicts to claims
type VerificationService struct {
	db     *gorm.DB
	log    *logger.Logger
	pub    events.Publisher
	policy VerdictPolicy
	now    func() time.Time
}

// NewVerificationService creates a verification service. A nil policy means LastWriteWins.
func NewVerificationService(db *gorm.DB, log *logger.Logger, pub events.Publisher, policy VerdictPolicy) *VerificationService {
	if pub == nil {
		pub = events.Nop{}
	}
	if policy == nil {
		policy = LastWriteWins{}
	}
	return &VerificationService{
		db:     db,
		log:    log.With("service", "VerificationService"),
		pub:    pub,
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Verify records a reviewer's verdict: the canonical verification is replaced
// through the verdict policy and a judgment is appended, atomically. The
// reviewer's contribution count moves in the same transaction.
func (s *VerificationService) Verify(ctx context.Context, claimID, reviewerID uuid.UUID, verdict Verdict) (*models.Claim, error) {
	now := s.now()
	var claim *models.Claim

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadActor(ctx, tx, reviewerID, policy.ActionVerify); err != nil {
			return err
		}
		if err := verdict.validate(now); err != nil {
			return err
		}

		current, err := lockActiveClaim(ctx, tx, claimID)
		if err != nil {
			return err
		}
		next := s.policy.Apply(current.Verification, verdict, reviewerID, now)

		if err := tx.Model(&models.Claim{}).Where("id = ?", claimID).
			UpdateColumns(map[string]interface{}{
				"verification_status":      next.Status,
				"verification_score":       next.Score,
				"verification_confidence":  next.Confidence,
				"verification_sources":     next.Sources,
				"verification_notes":       next.Notes,
				"verification_verified_by": next.VerifiedBy,
				"verification_date":        next.Date,
				"updated_at":               now,
			}).Error; err != nil {
			return apperr.ServerFault(err, "failed to update verification")
		}

		judgment := &models.Judgment{
			ClaimID:    claimID,
			ReviewerID: reviewerID,
			Status:     verdict.Status,
			Score:      verdict.Score,
			Comments:   verdict.Notes,
			CreatedAt:  now,
		}
		if err := tx.Create(judgment).Error; err != nil {
			return apperr.ServerFault(err, "failed to append judgment")
		}

		if err := tx.Model(&models.User{}).Where("id = ?", reviewerID).
			UpdateColumn("stats_contributions_count", gorm.Expr("stats_contributions_count + 1")).Error; err != nil {
			return apperr.ServerFault(err, "failed to update reviewer stats")
		}

		claim, err = loadClaim(ctx, tx, claimID)
		return err
	})
	if err != nil {
		return nil, fault(s.log, err, "failed to verify claim", "claim_id", claimID, "reviewer_id", reviewerID)
	}

	metrics.Verifications.WithLabelValues(string(verdict.Status)).Inc()
	s.log.Info("Claim verified",
		"claim_id", claimID,
		"reviewer_id", reviewerID,
		"status", verdict.Status,
		"score", verdict.Score,
		"judgments", len(claim.Judgments),
	)
	publish(ctx, s.log, s.pub, events.Event{
		Type:    events.TypeClaimVerified,
		ClaimID: claimID,
		ActorID: &reviewerID,
		Data: map[string]interface{}{
			"status": verdict.Status,
			"score":  verdict.Score,
		},
	})
	return claim, nil
}
