package services

import (
	"context"
	"testing"
	"time"

	"open-factcheck/internal/apperr"
	"open-factcheck/internal/events"
	"open-factcheck/internal/models"
	"open-factcheck/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationService_VerdictHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	submitter := testutil.User(t, env.db, "submitter", models.RoleUser)
	checker := testutil.User(t, env.db, "checker", models.RoleFactChecker)
	expert := testutil.User(t, env.db, "expert", models.RoleExpert)

	claim := env.submit(t, submitter, "La Terre est plate selon une étude")
	assert.Equal(t, models.StatusPending, claim.Verification.Status)
	assert.Equal(t, 0, claim.Verification.Score)
	assert.Empty(t, claim.Judgments)
	assert.Nil(t, claim.Verification.Date)

	t.Run("first verdict becomes canonical", func(t *testing.T) {
		got, err := env.verification.Verify(ctx, claim.ID, checker.ID, Verdict{
			Status: models.StatusFalse,
			Score:  5,
			Notes:  "No such study exists",
		})
		require.NoError(t, err)

		assert.Equal(t, models.StatusFalse, got.Verification.Status)
		assert.Equal(t, 5, got.Verification.Score)
		require.NotNil(t, got.Verification.Date)
		require.NotNil(t, got.Verification.VerifiedBy)
		assert.Equal(t, checker.ID, *got.Verification.VerifiedBy)
		require.Len(t, got.Judgments, 1)
		assert.Equal(t, "No such study exists", got.Judgments[0].Comments)
	})

	t.Run("second verdict overwrites and history keeps both", func(t *testing.T) {
		got, err := env.verification.Verify(ctx, claim.ID, expert.ID, Verdict{
			Status: models.StatusMisleading,
			Score:  40,
		})
		require.NoError(t, err)

		assert.Equal(t, models.StatusMisleading, got.Verification.Status)
		assert.Equal(t, 40, got.Verification.Score)
		assert.Equal(t, expert.ID, *got.Verification.VerifiedBy)
		require.Len(t, got.Judgments, 2)
		assert.Equal(t, models.StatusFalse, got.Judgments[0].Status)
		assert.Equal(t, 5, got.Judgments[0].Score)
		assert.Equal(t, checker.ID, got.Judgments[0].ReviewerID)
		assert.Equal(t, models.StatusMisleading, got.Judgments[1].Status)
		assert.True(t, got.Judgments[0].CreatedAt.Before(got.Judgments[1].CreatedAt))
	})

	t.Run("reviewer contributions are counted", func(t *testing.T) {
		var reloaded models.User
		require.NoError(t, env.db.First(&reloaded, "id = ?", checker.ID).Error)
		assert.Equal(t, 1, reloaded.Stats.ContributionsCount)
		var submitterRow models.User
		require.NoError(t, env.db.First(&submitterRow, "id = ?", submitter.ID).Error)
		assert.Equal(t, 1, submitterRow.Stats.VerificationsCount)
		assert.Equal(t, 0, submitterRow.Stats.ContributionsCount)
	})
}

func TestVerificationService_JudgmentsOnlyGrow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	submitter := testutil.User(t, env.db, "submitter", models.RoleUser)
	admin := testutil.User(t, env.db, "admin", models.RoleAdmin)
	claim := env.submit(t, submitter, "Vaccines contain microchips for tracking")

	var previous []models.Judgment
	statuses := []models.VerificationStatus{
		models.StatusUnverified, models.StatusFalse, models.StatusPartiallyTrue, models.StatusFalse,
	}
	for i, status := range statuses {
		got, err := env.verification.Verify(ctx, claim.ID, admin.ID, Verdict{Status: status, Score: i * 10})
		require.NoError(t, err)
		require.Len(t, got.Judgments, len(previous)+1)
		for j := range previous {
			assert.Equal(t, previous[j].ID, got.Judgments[j].ID, "judgment %d was rewritten", j)
			assert.Equal(t, previous[j].Status, got.Judgments[j].Status)
		}
		previous = got.Judgments
	}
}

func TestVerificationService_PermissionDenied(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	submitter := testutil.User(t, env.db, "submitter", models.RoleUser)
	plain := testutil.User(t, env.db, "plain", models.RoleUser)
	claim := env.submit(t, submitter, "The moon landing was staged in a studio")
	before := env.reload(t, claim.ID)

	t.Run("user role is rejected", func(t *testing.T) {
		_, err := env.verification.Verify(ctx, claim.ID, plain.ID, Verdict{Status: models.StatusFalse, Score: 1})
		assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	})

	t.Run("permission is checked before the verdict", func(t *testing.T) {
		_, err := env.verification.Verify(ctx, claim.ID, plain.ID, Verdict{Status: "bogus", Score: 500})
		assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	})

	t.Run("inactive reviewer is rejected", func(t *testing.T) {
		checker := testutil.User(t, env.db, "retired", models.RoleFactChecker)
		require.NoError(t, env.db.Model(checker).UpdateColumn("is_active", false).Error)
		_, err := env.verification.Verify(ctx, claim.ID, checker.ID, Verdict{Status: models.StatusFalse})
		assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	})

	t.Run("unknown reviewer", func(t *testing.T) {
		_, err := env.verification.Verify(ctx, claim.ID, uuid.New(), Verdict{Status: models.StatusFalse})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	after := env.reload(t, claim.ID)
	assert.Equal(t, before.Verification.Status, after.Verification.Status)
	assert.Equal(t, before.Verification.Score, after.Verification.Score)
	assert.Empty(t, after.Judgments)
}

func TestVerificationService_InvalidVerdict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	submitter := testutil.User(t, env.db, "submitter", models.RoleUser)
	checker := testutil.User(t, env.db, "checker", models.RoleFactChecker)
	claim := env.submit(t, submitter, "Drinking bleach cures the common cold")

	tests := []struct {
		name    string
		verdict Verdict
		field   string
	}{
		{"pending is not a verdict", Verdict{Status: models.StatusPending, Score: 10}, "status"},
		{"unknown status", Verdict{Status: "maybe", Score: 10}, "status"},
		{"score above range", Verdict{Status: models.StatusFalse, Score: 101}, "score"},
		{"negative score", Verdict{Status: models.StatusFalse, Score: -1}, "score"},
		{"confidence above one", Verdict{Status: models.StatusFalse, Confidence: 1.5}, "confidence"},
		{"source without name", Verdict{Status: models.StatusFalse, Sources: []models.Source{{Type: models.SourceMedia}}}, "sources[0].name"},
		{"source with bad url", Verdict{Status: models.StatusFalse, Sources: []models.Source{{Name: "WHO", URL: "ftp://who.int", Type: models.SourceOfficial}}}, "sources[0].url"},
		{"source credibility out of range", Verdict{Status: models.StatusFalse, Sources: []models.Source{{Name: "WHO", Credibility: credibility(150), Type: models.SourceOfficial}}}, "sources[0].credibility"},
		{"source type unknown", Verdict{Status: models.StatusFalse, Sources: []models.Source{{Name: "WHO", Type: "blog"}}}, "sources[0].type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.verification.Verify(ctx, claim.ID, checker.ID, tt.verdict)
			require.ErrorIs(t, err, apperr.ErrValidation)
			assert.Contains(t, apperr.FieldsOf(err), tt.field)
		})
	}

	after := env.reload(t, claim.ID)
	assert.Equal(t, models.StatusPending, after.Verification.Status)
	assert.Empty(t, after.Judgments)
}

func TestVerificationService_SourcesStamped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	submitter := testutil.User(t, env.db, "submitter", models.RoleUser)
	checker := testutil.User(t, env.db, "checker", models.RoleFactChecker)
	claim := env.submit(t, submitter, "Coffee doubles your lifespan, says new report")

	fixed := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	sources := []models.Source{
		{Name: " Cohort study ", URL: "https://example.org/study", Credibility: credibility(90), Type: models.SourceAcademic},
		{Name: "Press release", Type: models.SourceMedia, LastVerified: fixed},
	}
	got, err := env.verification.Verify(ctx, claim.ID, checker.ID, Verdict{
		Status:     models.StatusPartiallyTrue,
		Score:      55,
		Confidence: 0.8,
		Sources:    sources,
	})
	require.NoError(t, err)
	assert.Equal(t, " Cohort study ", sources[0].Name, "caller's sources are left as passed")
	assert.True(t, sources[0].LastVerified.IsZero())
	require.Len(t, got.Verification.Sources, 2)
	assert.Equal(t, "Cohort study", got.Verification.Sources[0].Name)
	assert.False(t, got.Verification.Sources[0].LastVerified.IsZero())
	assert.True(t, fixed.Equal(got.Verification.Sources[1].LastVerified))
	assert.InDelta(t, 0.8, got.Verification.Confidence, 1e-9)
}

func TestVerificationService_DeactivatedClaim(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	submitter := testutil.User(t, env.db, "submitter", models.RoleUser)
	checker := testutil.User(t, env.db, "checker", models.RoleFactChecker)
	claim := env.submit(t, submitter, "Wind turbines cause cancer in nearby towns")
	require.NoError(t, env.claims.Deactivate(ctx, claim.ID, submitter.ID))

	_, err := env.verification.Verify(ctx, claim.ID, checker.ID, Verdict{Status: models.StatusFalse})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestVerificationService_PublishesEvent(t *testing.T) {
	env := newTestEnv(t)
	sub := env.hub.Subscribe()
	defer sub.Close()

	submitter := testutil.User(t, env.db, "submitter", models.RoleUser)
	checker := testutil.User(t, env.db, "checker", models.RoleFactChecker)
	claim := env.submit(t, submitter, "Eating carrots gives you night vision")

	_, err := env.verification.Verify(context.Background(), claim.ID, checker.ID, Verdict{Status: models.StatusMisleading, Score: 30})
	require.NoError(t, err)

	var types []string
	for len(sub.C) > 0 {
		ev := <-sub.C
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{events.TypeClaimSubmitted, events.TypeClaimVerified}, types)
}

type keepFirstPolicy struct{}

func (keepFirstPolicy) Apply(current models.Verification, v Verdict, reviewerID uuid.UUID, now time.Time) models.Verification {
	if current.Status != models.StatusPending {
		return current
	}
	return LastWriteWins{}.Apply(current, v, reviewerID, now)
}

func TestVerificationService_CustomPolicy(t *testing.T) {
	env := newTestEnv(t)
	env.verification.policy = keepFirstPolicy{}
	ctx := context.Background()

	submitter := testutil.User(t, env.db, "submitter", models.RoleUser)
	checker := testutil.User(t, env.db, "checker", models.RoleFactChecker)
	claim := env.submit(t, submitter, "Goldfish have a three second memory")

	_, err := env.verification.Verify(ctx, claim.ID, checker.ID, Verdict{Status: models.StatusFalse, Score: 10})
	require.NoError(t, err)
	got, err := env.verification.Verify(ctx, claim.ID, checker.ID, Verdict{Status: models.StatusVerified, Score: 95})
	require.NoError(t, err)

	assert.Equal(t, models.StatusFalse, got.Verification.Status)
	assert.Len(t, got.Judgments, 2)
}
