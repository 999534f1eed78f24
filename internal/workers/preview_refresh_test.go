package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"open-factcheck/internal/models"
	"open-factcheck/internal/preview"
	"open-factcheck/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockPreviewSource is a mock implementation of PreviewSource
type MockPreviewSource struct {
	mock.Mock
}

func (m *MockPreviewSource) Fetch(ctx context.Context, pageURL string) (*preview.Preview, error) {
	args := m.Called(ctx, pageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*preview.Preview), args.Error(1)
}

func createClaim(t *testing.T, db *gorm.DB, url string) *models.Claim {
	t.Helper()
	c := &models.Claim{
		Content:      models.ClaimContent{Text: "claim pointing at " + url, URL: url},
		Verification: models.Verification{Status: models.StatusPending},
		Metadata:     models.ClaimMetadata{SubmittedBy: uuid.New(), Category: models.CategoryOther, Priority: models.PriorityMedium},
		IsActive:     true,
		IsPublic:     true,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func TestPreviewRefreshWorker_RefreshBatch(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()

	ok := createClaim(t, db, "https://news.example/ok")
	broken := createClaim(t, db, "https://news.example/broken")
	noURL := createClaim(t, db, "")

	source := new(MockPreviewSource)
	source.On("Fetch", mock.Anything, "https://news.example/ok").
		Return(&preview.Preview{Title: "Title", Description: "Desc", SiteName: "News"}, nil).Once()
	source.On("Fetch", mock.Anything, "https://news.example/broken").
		Return(nil, errors.New("HTTP 500")).Once()

	worker := NewPreviewRefreshWorker(db, source, RefreshConfig{BatchSize: 10, Rate: 1000}, testutil.Logger(t))

	n, err := worker.RefreshBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	source.AssertExpectations(t)

	var got models.Claim
	require.NoError(t, db.First(&got, "id = ?", ok.ID).Error)
	assert.Equal(t, "Title", got.Preview.Title)
	assert.Equal(t, "News", got.Preview.SiteName)
	assert.NotNil(t, got.Preview.FetchedAt)

	var failed models.Claim
	require.NoError(t, db.First(&failed, "id = ?", broken.ID).Error)
	assert.Equal(t, "HTTP 500", failed.Preview.FetchError)
	assert.NotNil(t, failed.Preview.FetchedAt)

	var skipped models.Claim
	require.NoError(t, db.First(&skipped, "id = ?", noURL.ID).Error)
	assert.Nil(t, skipped.Preview.FetchedAt)

	stats, err := worker.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Pending)
	assert.Equal(t, int64(1), stats.Failed)

	// nothing left to do; the mock would fail on an unexpected call
	n, err = worker.RefreshBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestPreviewRefreshWorker_BatchSize(t *testing.T) {
	db := testutil.DB(t)
	for i := 0; i < 3; i++ {
		createClaim(t, db, "https://news.example/"+uuid.NewString())
	}

	source := new(MockPreviewSource)
	source.On("Fetch", mock.Anything, mock.Anything).Return(&preview.Preview{Title: "x"}, nil)

	worker := NewPreviewRefreshWorker(db, source, RefreshConfig{BatchSize: 2, Rate: 1000}, testutil.Logger(t))
	n, err := worker.RefreshBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	source.AssertNumberOfCalls(t, "Fetch", 2)
}

func TestPreviewRefreshWorker_StopsOnCancel(t *testing.T) {
	db := testutil.DB(t)
	source := new(MockPreviewSource)
	worker := NewPreviewRefreshWorker(db, source, RefreshConfig{Interval: time.Hour}, testutil.Logger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
	worker.Stop()
	worker.Stop()
}
