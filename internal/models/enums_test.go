package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerificationStatus(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.False(t, StatusPending.IsVerdict())

	for _, s := range VerdictStatuses {
		assert.True(t, s.Valid(), s)
		assert.True(t, s.IsVerdict(), s)
	}

	assert.False(t, VerificationStatus("debunked").Valid())
}

func TestEnumsRejectUnknownValues(t *testing.T) {
	assert.True(t, CategoryScience.Valid())
	assert.False(t, Category("astrology").Valid())

	assert.True(t, PriorityUrgent.Valid())
	assert.False(t, Priority("").Valid())

	assert.True(t, MediaVideo.Valid())
	assert.False(t, MediaKind("gif").Valid())

	assert.True(t, SourceSocialMedia.Valid())
	assert.False(t, SourceType("blog").Valid())

	assert.True(t, RoleFactChecker.Valid())
	assert.False(t, Role("moderator").Valid())
}
