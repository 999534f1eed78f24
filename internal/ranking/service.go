// Package ranking builds the trending claim list and the user leaderboard
package ranking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"open-factcheck/internal/apperr"
	"open-factcheck/internal/events"
	"open-factcheck/internal/logger"
	"open-factcheck/internal/metrics"
	"open-factcheck/internal/models"
	"open-factcheck/internal/policy"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// Leaderboard weights
const (
	VerificationWeight = 10
	ContributionWeight = 5
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Period windows the leaderboard on user creation time
type Period string

const (
	PeriodAll   Period = "all"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// Since returns the earliest user creation time included in p, or the zero
// time for PeriodAll
func (p Period) Since(now time.Time) (time.Time, error) {
	switch p {
	case PeriodAll, "":
		return time.Time{}, nil
	case PeriodWeek:
		return now.AddDate(0, 0, -7), nil
	case PeriodMonth:
		return now.AddDate(0, 0, -30), nil
	}
	return time.Time{}, apperr.ValidationField("period", "must be one of all, week, month")
}

// UserRanking is one leaderboard row
type UserRanking struct {
	Rank               int         `json:"rank" gorm:"-"`
	UserID             uuid.UUID   `json:"user_id"`
	Username           string      `json:"username"`
	DisplayName        string      `json:"display_name"`
	Role               models.Role `json:"role"`
	ReputationScore    int         `json:"reputation_score"`
	VerificationsCount int         `json:"verifications_count"`
	ContributionsCount int         `json:"contributions_count"`
	TotalScore         int         `json:"total_score"`
}

// TotalScore is the leaderboard weight of a user's reputation and stats
func TotalScore(reputation, verifications, contributions int) int {
	return reputation + verifications*VerificationWeight + contributions*ContributionWeight
}

const (
	trendingPrefix    = "trending:"
	leaderboardPrefix = "leaderboard:"
)

// Service computes rankings on read and keeps them in a short TTL cache.
// A cached result is at most ttl older than the mutation that changed it.
type Service struct {
	db    *gorm.DB
	log   *logger.Logger
	pub   events.Publisher
	cache *gocache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewService creates a ranking service. A ttl of zero disables caching.
func NewService(db *gorm.DB, log *logger.Logger, pub events.Publisher, ttl time.Duration) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	cleanup := 2 * ttl
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &Service{
		db:    db,
		log:   log.With("service", "RankingService"),
		pub:   pub,
		cache: gocache.New(ttl, cleanup),
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func clampLimit(limit int) int {
	if limit < 1 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func (s *Service) cached(key string) (interface{}, bool) {
	if s.ttl <= 0 {
		return nil, false
	}
	v, ok := s.cache.Get(key)
	if ok {
		metrics.RankingCacheHits.WithLabelValues("hit").Inc()
	} else {
		metrics.RankingCacheHits.WithLabelValues("miss").Inc()
	}
	return v, ok
}

func (s *Service) store(key string, v interface{}) {
	if s.ttl > 0 {
		s.cache.Set(key, v, gocache.DefaultExpiration)
	}
}

// Trending returns up to limit claims flagged trending, most viewed first.
// Eligibility is the manual flag only; viral_score plays no part.
func (s *Service) Trending(ctx context.Context, limit int) ([]models.Claim, error) {
	limit = clampLimit(limit)
	key := fmt.Sprintf("%s%d", trendingPrefix, limit)
	if v, ok := s.cached(key); ok {
		return v.([]models.Claim), nil
	}

	claims := []models.Claim{}
	err := s.db.WithContext(ctx).
		Where("trending = ? AND is_active = ? AND is_public = ?", true, true, true).
		Order("views DESC").
		Order("created_at DESC").
		Order("id ASC").
		Limit(limit).
		Find(&claims).Error
	if err != nil {
		s.log.Error("Failed to load trending claims", "error", err)
		return nil, apperr.ServerFault(err, "failed to load trending claims")
	}

	s.store(key, claims)
	return claims, nil
}

// Leaderboard ranks active users by TotalScore, ties by user id
func (s *Service) Leaderboard(ctx context.Context, limit int, period Period) ([]UserRanking, error) {
	since, err := period.Since(s.now())
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = PeriodAll
	}
	limit = clampLimit(limit)
	key := fmt.Sprintf("%s%s:%d", leaderboardPrefix, period, limit)
	if v, ok := s.cached(key); ok {
		return v.([]UserRanking), nil
	}

	q := s.db.WithContext(ctx).Model(&models.User{}).
		Select(`id AS user_id, username, display_name, role,
			reputation_score,
			stats_verifications_count AS verifications_count,
			stats_contributions_count AS contributions_count,
			reputation_score + stats_verifications_count * ? + stats_contributions_count * ? AS total_score`,
			VerificationWeight, ContributionWeight).
		Where("is_active = ?", true)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}

	rows := []UserRanking{}
	if err := q.Order("total_score DESC").Order("id ASC").Limit(limit).Scan(&rows).Error; err != nil {
		s.log.Error("Failed to load leaderboard", "period", period, "error", err)
		return nil, apperr.ServerFault(err, "failed to load leaderboard")
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}

	s.store(key, rows)
	return rows, nil
}

// SetTrending sets or clears a claim's trending flag. Admin only.
func (s *Service) SetTrending(ctx context.Context, actorID, claimID uuid.UUID, trending bool) (*models.Claim, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", actorID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user %s not found", actorID)
	}
	if err != nil {
		return nil, apperr.ServerFault(err, "failed to load user")
	}
	if err := policy.Check(policy.ActorFromUser(&user), policy.ActionSetTrending); err != nil {
		metrics.IncDenied(string(policy.ActionSetTrending))
		return nil, err
	}

	res := s.db.WithContext(ctx).Model(&models.Claim{}).
		Where("id = ? AND is_active = ?", claimID, true).
		UpdateColumns(map[string]interface{}{"trending": trending, "updated_at": s.now()})
	if res.Error != nil {
		s.log.Error("Failed to set trending flag", "claim_id", claimID, "error", res.Error)
		return nil, apperr.ServerFault(res.Error, "failed to set trending flag")
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("claim %s not found", claimID)
	}

	var claim models.Claim
	if err := s.db.WithContext(ctx).Where("id = ?", claimID).First(&claim).Error; err != nil {
		return nil, apperr.ServerFault(err, "failed to reload claim")
	}

	s.Invalidate(trendingPrefix)
	s.log.Info("Trending flag changed", "claim_id", claimID, "trending", trending, "actor_id", actorID)
	if err := s.pub.Publish(ctx, events.Event{
		Type:    events.TypeClaimTrending,
		ClaimID: claimID,
		ActorID: &actorID,
		Data:    map[string]interface{}{"trending": trending},
	}); err != nil {
		s.log.Warn("Failed to publish event", "type", events.TypeClaimTrending, "error", err)
	}
	return &claim, nil
}

// Invalidate drops cached entries whose key starts with prefix; an empty
// prefix clears everything
func (s *Service) Invalidate(prefix string) {
	if prefix == "" {
		s.cache.Flush()
		return
	}
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}
}

// InvalidateOnEvents drops cached trending lists whenever a trending flag
// change arrives on sub, including changes made by other instances and
// forwarded over the event bus. It returns when ctx ends or sub is closed.
func (s *Service) InvalidateOnEvents(ctx context.Context, sub *events.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if ev.Type == events.TypeClaimTrending {
				s.Invalidate(trendingPrefix)
			}
		}
	}
}

// Warm recomputes the default trending list and every leaderboard period
func (s *Service) Warm(ctx context.Context) error {
	s.Invalidate("")
	if _, err := s.Trending(ctx, DefaultLimit); err != nil {
		return err
	}
	for _, p := range []Period{PeriodAll, PeriodWeek, PeriodMonth} {
		if _, err := s.Leaderboard(ctx, DefaultLimit, p); err != nil {
			return err
		}
	}
	return nil
}
