package services

import (
	"context"
	"time"

	"open-factcheck/internal/apperr"
	"open-factcheck/internal/events"
	"open-factcheck/internal/logger"
	"open-factcheck/internal/metrics"
	"open-factcheck/internal/models"
	"open-factcheck/internal/policy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EngagementService mutates view/share/like/bookmark counters. Every counter
// change recomputes viral_score in the same UPDATE, so concurrent mutations
// never lose increments and the score never drifts from the counters.
type EngagementService struct {
	db  *gorm.DB
	log *logger.Logger
	pub events.Publisher
	now func() time.Time
}

// NewEngagementService creates a new engagement service
func NewEngagementService(db *gorm.DB, log *logger.Logger, pub events.Publisher) *EngagementService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &EngagementService{
		db:  db,
		log: log.With("service", "EngagementService"),
		pub: pub,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// LikeResult reports the state after a like toggle
type LikeResult struct {
	Liked bool  `json:"liked"`
	Count int64 `json:"count"`
}

// Action is "like" or "unlike"
func (r LikeResult) Action() string {
	if r.Liked {
		return "like"
	}
	return "unlike"
}

// BookmarkResult reports the state after a bookmark toggle
type BookmarkResult struct {
	Bookmarked bool  `json:"bookmarked"`
	Count      int64 `json:"count"`
}

type counterDelta struct {
	views, shares, likes, bookmarks, comments int
}

func (d counterDelta) columns(now time.Time) map[string]interface{} {
	cols := map[string]interface{}{
		"viral_score": viralScoreExpr(d.views, d.shares, d.likes),
		"updated_at":  now,
	}
	if d.views != 0 {
		cols["views"] = gorm.Expr("views + ?", d.views)
	}
	if d.shares != 0 {
		cols["shares"] = gorm.Expr("shares + ?", d.shares)
	}
	if d.likes != 0 {
		cols["likes_count"] = gorm.Expr("likes_count + ?", d.likes)
	}
	if d.bookmarks != 0 {
		cols["bookmarks_count"] = gorm.Expr("bookmarks_count + ?", d.bookmarks)
	}
	if d.comments != 0 {
		cols["comments_count"] = gorm.Expr("comments_count + ?", d.comments)
	}
	return cols
}

// bump applies d to an active, public claim in a single statement
func bump(ctx context.Context, tx *gorm.DB, claimID uuid.UUID, d counterDelta, now time.Time) error {
	res := tx.WithContext(ctx).
		Model(&models.Claim{}).
		Where("id = ? AND is_active = ? AND is_public = ?", claimID, true, true).
		UpdateColumns(d.columns(now))
	if res.Error != nil {
		return apperr.ServerFault(res.Error, "failed to update engagement")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("claim %s not found", claimID)
	}
	return nil
}

// RecordView counts one read of a single claim
func (s *EngagementService) RecordView(ctx context.Context, claimID uuid.UUID) error {
	if err := bump(ctx, s.db, claimID, counterDelta{views: 1}, s.now()); err != nil {
		return fault(s.log, err, "failed to record view", "claim_id", claimID)
	}
	metrics.IncEngagement("view")
	return nil
}

// RecordShare counts one share of a claim
func (s *EngagementService) RecordShare(ctx context.Context, claimID uuid.UUID) error {
	if err := bump(ctx, s.db, claimID, counterDelta{shares: 1}, s.now()); err != nil {
		return fault(s.log, err, "failed to record share", "claim_id", claimID)
	}
	metrics.IncEngagement("share")
	publish(ctx, s.log, s.pub, events.Event{
		Type:    events.TypeClaimEngagement,
		ClaimID: claimID,
		Data:    map[string]interface{}{"kind": "share"},
	})
	return nil
}

// ToggleLike adds the user to the claim's like set, or removes them if present
func (s *EngagementService) ToggleLike(ctx context.Context, claimID, userID uuid.UUID) (*LikeResult, error) {
	var result LikeResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadActor(ctx, tx, userID, policy.ActionLike); err != nil {
			return err
		}
		if _, err := lockActiveClaim(ctx, tx, claimID); err != nil {
			return err
		}

		member, err := toggleMembership(tx, &models.ClaimLike{ClaimID: claimID, UserID: userID})
		if err != nil {
			return err
		}
		delta := counterDelta{likes: -1}
		if member {
			delta = counterDelta{likes: 1}
		}
		if err := bump(ctx, tx, claimID, delta, s.now()); err != nil {
			return err
		}

		result.Liked = member
		return tx.Model(&models.Claim{}).Where("id = ?", claimID).
			Pluck("likes_count", &result.Count).Error
	})
	if err != nil {
		return nil, fault(s.log, err, "failed to toggle like", "claim_id", claimID, "user_id", userID)
	}

	metrics.IncEngagement(result.Action())
	publish(ctx, s.log, s.pub, events.Event{
		Type:    events.TypeClaimEngagement,
		ClaimID: claimID,
		ActorID: &userID,
		Data:    map[string]interface{}{"kind": result.Action(), "likes": result.Count},
	})
	return &result, nil
}

// ToggleBookmark adds the user to the claim's bookmark set, or removes them
func (s *EngagementService) ToggleBookmark(ctx context.Context, claimID, userID uuid.UUID) (*BookmarkResult, error) {
	var result BookmarkResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadActor(ctx, tx, userID, policy.ActionBookmark); err != nil {
			return err
		}
		if _, err := lockActiveClaim(ctx, tx, claimID); err != nil {
			return err
		}

		member, err := toggleMembership(tx, &models.ClaimBookmark{ClaimID: claimID, UserID: userID})
		if err != nil {
			return err
		}
		delta := counterDelta{bookmarks: -1}
		if member {
			delta = counterDelta{bookmarks: 1}
		}
		if err := bump(ctx, tx, claimID, delta, s.now()); err != nil {
			return err
		}

		result.Bookmarked = member
		return tx.Model(&models.Claim{}).Where("id = ?", claimID).
			Pluck("bookmarks_count", &result.Count).Error
	})
	if err != nil {
		return nil, fault(s.log, err, "failed to toggle bookmark", "claim_id", claimID, "user_id", userID)
	}

	if result.Bookmarked {
		metrics.IncEngagement("bookmark")
	} else {
		metrics.IncEngagement("unbookmark")
	}
	return &result, nil
}

// toggleMembership deletes the row if present, otherwise inserts it.
// It returns true when the row exists afterwards.
func toggleMembership(tx *gorm.DB, row interface{}) (bool, error) {
	res := tx.Where(row).Delete(row)
	if res.Error != nil {
		return false, apperr.ServerFault(res.Error, "failed to remove membership")
	}
	if res.RowsAffected > 0 {
		return false, nil
	}
	if err := tx.Create(row).Error; err != nil {
		return false, apperr.ServerFault(err, "failed to add membership")
	}
	return true, nil
}

// Rescore rebuilds the like/bookmark mirrors from their sets and recomputes
// every viral score from the counters. It returns the number of claims changed.
func (s *EngagementService) Rescore(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Exec(`
		UPDATE claims SET
			likes_count = (SELECT COUNT(*) FROM claim_likes WHERE claim_likes.claim_id = claims.id),
			bookmarks_count = (SELECT COUNT(*) FROM claim_bookmarks WHERE claim_bookmarks.claim_id = claims.id),
			viral_score = views + shares * ? + (SELECT COUNT(*) FROM claim_likes WHERE claim_likes.claim_id = claims.id) * ?
		WHERE
			likes_count <> (SELECT COUNT(*) FROM claim_likes WHERE claim_likes.claim_id = claims.id)
			OR bookmarks_count <> (SELECT COUNT(*) FROM claim_bookmarks WHERE claim_bookmarks.claim_id = claims.id)
			OR viral_score <> views + shares * ? + likes_count * ?`,
		ShareWeight, LikeWeight, ShareWeight, LikeWeight)
	if res.Error != nil {
		return 0, fault(s.log, res.Error, "failed to rescore claims")
	}
	if res.RowsAffected > 0 {
		s.log.Info("Rescored claims", "changed", res.RowsAffected)
	}
	return res.RowsAffected, nil
}
