package models

// VerificationStatus is the canonical verdict state of a claim
type VerificationStatus string

const (
	StatusPending       VerificationStatus = "pending"
	StatusVerified      VerificationStatus = "verified"
	StatusFalse         VerificationStatus = "false"
	StatusMisleading    VerificationStatus = "misleading"
	StatusUnverified    VerificationStatus = "unverified"
	StatusPartiallyTrue VerificationStatus = "partially_true"
)

// VerdictStatuses lists the states a verify call may move a claim into
var VerdictStatuses = []VerificationStatus{
	StatusVerified, StatusFalse, StatusMisleading, StatusUnverified, StatusPartiallyTrue,
}

// Valid reports whether s is any known status, pending included
func (s VerificationStatus) Valid() bool {
	return s == StatusPending || s.IsVerdict()
}

// IsVerdict reports whether s is a valid verify target (pending is not)
func (s VerificationStatus) IsVerdict() bool {
	for _, v := range VerdictStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Category is the fixed topic enum a claim is filed under
type Category string

const (
	CategoryPolitics      Category = "politics"
	CategoryHealth        Category = "health"
	CategoryScience       Category = "science"
	CategoryTechnology    Category = "technology"
	CategoryEconomy       Category = "economy"
	CategoryEnvironment   Category = "environment"
	CategorySociety       Category = "society"
	CategoryEducation     Category = "education"
	CategorySports        Category = "sports"
	CategoryEntertainment Category = "entertainment"
	CategoryOther         Category = "other"
)

var Categories = []Category{
	CategoryPolitics, CategoryHealth, CategoryScience, CategoryTechnology, CategoryEconomy,
	CategoryEnvironment, CategorySociety, CategoryEducation, CategorySports,
	CategoryEntertainment, CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Priority orders the review queue
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// MediaKind describes an attached media reference
type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaAudio    MediaKind = "audio"
	MediaDocument MediaKind = "document"
)

func (k MediaKind) Valid() bool {
	switch k {
	case MediaImage, MediaVideo, MediaAudio, MediaDocument:
		return true
	}
	return false
}

// SourceType classifies a supporting source
type SourceType string

const (
	SourceOfficial    SourceType = "official"
	SourceMedia       SourceType = "media"
	SourceAcademic    SourceType = "academic"
	SourceExpert      SourceType = "expert"
	SourceSocialMedia SourceType = "social_media"
)

func (t SourceType) Valid() bool {
	switch t {
	case SourceOfficial, SourceMedia, SourceAcademic, SourceExpert, SourceSocialMedia:
		return true
	}
	return false
}

// Role is a user's accreditation level
type Role string

const (
	RoleUser        Role = "user"
	RoleFactChecker Role = "fact-checker"
	RoleExpert      Role = "expert"
	RoleAdmin       Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleFactChecker, RoleExpert, RoleAdmin:
		return true
	}
	return false
}
