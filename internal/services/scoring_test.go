package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViralScore(t *testing.T) {
	tests := []struct {
		name                 string
		views, shares, likes int64
		expected             int64
	}{
		{"No engagement", 0, 0, 0, 0},
		{"Views only", 7, 0, 0, 7},
		{"Shares weigh double", 0, 4, 0, 8},
		{"Likes weigh triple", 0, 0, 5, 15},
		{"Mixed", 10, 2, 3, 23},
		{"One more view", 11, 2, 3, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ViralScore(tt.views, tt.shares, tt.likes))
		})
	}
}

func TestCredibilityLevel(t *testing.T) {
	tests := []struct {
		score    int
		expected string
	}{
		{100, LevelVeryReliable},
		{90, LevelVeryReliable},
		{89, LevelReliable},
		{70, LevelReliable},
		{69, LevelPartiallyReliable},
		{50, LevelPartiallyReliable},
		{49, LevelLowReliability},
		{30, LevelLowReliability},
		{29, LevelNotReliable},
		{0, LevelNotReliable},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CredibilityLevel(tt.score), "score %d", tt.score)
	}
}
