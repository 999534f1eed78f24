package services

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Virality weights: shares and likes are stronger signals than passive views
const (
	ShareWeight = 2
	LikeWeight  = 3
)

// ViralScore derives a claim's virality from its engagement counters
func ViralScore(views, shares, likes int64) int64 {
	return views + shares*ShareWeight + likes*LikeWeight
}

// viralScoreExpr is ViralScore evaluated by the database against the
// pre-update column values plus the given deltas, so a counter bump and its
// score recompute land in one statement
func viralScoreExpr(dViews, dShares, dLikes int) clause.Expr {
	return gorm.Expr("(views + ?) + (shares + ?) * ? + (likes_count + ?) * ?",
		dViews, dShares, ShareWeight, dLikes, LikeWeight)
}

// Credibility levels shown next to a verification score
const (
	LevelVeryReliable      = "Very Reliable"
	LevelReliable          = "Reliable"
	LevelPartiallyReliable = "Partially Reliable"
	LevelLowReliability    = "Low Reliability"
	LevelNotReliable       = "Not Reliable"
)

// CredibilityLevel buckets a 0-100 verification score
func CredibilityLevel(score int) string {
	switch {
	case score >= 90:
		return LevelVeryReliable
	case score >= 70:
		return LevelReliable
	case score >= 50:
		return LevelPartiallyReliable
	case score >= 30:
		return LevelLowReliability
	default:
		return LevelNotReliable
	}
}
