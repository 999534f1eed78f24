package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"open-factcheck/internal/events"
	"open-factcheck/internal/models"
	"open-factcheck/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db           *gorm.DB
	hub          *events.Hub
	claims       *ClaimService
	engagement   *EngagementService
	verification *VerificationService
	clock        *stepClock
}

// stepClock hands out strictly increasing timestamps so ordering by
// created_at is deterministic
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	hub := events.NewHub(64)
	clock := &stepClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	engagement := NewEngagementService(db, log, hub)
	engagement.now = clock.Now
	claims := NewClaimService(db, log, hub, engagement)
	claims.now = clock.Now
	verification := NewVerificationService(db, log, hub, nil)
	verification.now = clock.Now

	return &testEnv{
		db:           db,
		hub:          hub,
		claims:       claims,
		engagement:   engagement,
		verification: verification,
		clock:        clock,
	}
}

func (e *testEnv) submit(t *testing.T, submitter *models.User, text string) *models.Claim {
	t.Helper()
	claim, err := e.claims.Submit(context.Background(), SubmitInput{
		Text:     text,
		Category: models.CategoryScience,
	}, submitter.ID)
	require.NoError(t, err)
	return claim
}

func (e *testEnv) reload(t *testing.T, id uuid.UUID) *models.Claim {
	t.Helper()
	claim, err := loadClaim(context.Background(), e.db, id)
	require.NoError(t, err)
	return claim
}

func (e *testEnv) setCounters(t *testing.T, id uuid.UUID, views, shares, likes int64) {
	t.Helper()
	require.NoError(t, e.db.Model(&models.Claim{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"views":       views,
		"shares":      shares,
		"likes_count": likes,
		"viral_score": ViralScore(views, shares, likes),
	}).Error)
}

func credibility(v int) *int { return &v }
