package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ClaimSchemaVersion is stamped on every claim document written by this build
const ClaimSchemaVersion = 1

// Claim is a piece of content submitted for verification together with its
// canonical verdict, judgment history and engagement counters
type Claim struct {
	ID uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`

	Content      ClaimContent  `json:"content" gorm:"embedded;embeddedPrefix:content_"`
	Preview      LinkPreview   `json:"preview" gorm:"embedded;embeddedPrefix:preview_"`
	Verification Verification  `json:"verification" gorm:"embedded;embeddedPrefix:verification_"`
	Metadata     ClaimMetadata `json:"metadata" gorm:"embedded"`
	Engagement   Engagement    `json:"engagement" gorm:"embedded"`

	IsActive      bool `json:"is_active" gorm:"not null;default:true;index"`
	IsPublic      bool `json:"is_public" gorm:"not null;default:true;index"`
	SchemaVersion int  `json:"schema_version" gorm:"not null;default:1"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	Judgments []Judgment `json:"judgments" gorm:"foreignKey:ClaimID"`
}

// ClaimContent is the submitted material; it never changes after creation
type ClaimContent struct {
	Text               string    `json:"text" gorm:"type:text;not null"`
	URL                string    `json:"url,omitempty"`
	MediaRef           string    `json:"media_ref,omitempty"`
	MediaKind          MediaKind `json:"media_kind,omitempty" gorm:"type:varchar(16)"`
	OriginalLanguage   string    `json:"original_language,omitempty" gorm:"type:varchar(16)"`
	TranslatedLanguage string    `json:"translated_language,omitempty" gorm:"type:varchar(16)"`
}

// LinkPreview is derived from the claim URL by the preview worker
type LinkPreview struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty" gorm:"type:text"`
	SiteName    string     `json:"site_name,omitempty"`
	FetchError  string     `json:"-"`
	FetchedAt   *time.Time `json:"fetched_at,omitempty"`
}

// Verification is the canonical verdict. Every verify call overwrites it;
// the full history lives in Claim.Judgments.
type Verification struct {
	Status     VerificationStatus          `json:"status" gorm:"type:varchar(20);not null;default:pending;index"`
	Score      int                         `json:"score" gorm:"not null;default:0"`
	Confidence float64                     `json:"confidence" gorm:"not null;default:0"`
	Sources    datatypes.JSONSlice[Source] `json:"sources"`
	Notes      string                      `json:"notes,omitempty" gorm:"type:text"`
	VerifiedBy *uuid.UUID                  `json:"verified_by,omitempty" gorm:"type:uuid"`
	Date       *time.Time                  `json:"verification_date,omitempty"`
}

// Source backs a verdict
type Source struct {
	Name         string     `json:"name"`
	URL          string     `json:"url,omitempty"`
	Credibility  *int       `json:"credibility,omitempty"`
	Type         SourceType `json:"type"`
	LastVerified time.Time  `json:"last_verified"`
}

// ClaimMetadata holds ownership, classification and ranking fields
type ClaimMetadata struct {
	SubmittedBy uuid.UUID `json:"submitted_by" gorm:"type:uuid;not null;index"`
	Category    Category  `json:"category" gorm:"type:varchar(32);not null;index"`
	// Tags are encoded as a postgres array literal in a plain text column so
	// the schema also migrates on sqlite
	Tags       pq.StringArray `json:"tags" gorm:"type:text"`
	Priority   Priority       `json:"priority" gorm:"type:varchar(16);not null;default:medium"`
	Language   string         `json:"language,omitempty" gorm:"type:varchar(16)"`
	Region     string         `json:"region,omitempty" gorm:"type:varchar(64)"`
	Trending   bool           `json:"trending" gorm:"not null;default:false;index"`
	ViralScore int64          `json:"viral_score" gorm:"not null;default:0;index"`
}

// Engagement counters. Likes and bookmarks are sets (claim_likes,
// claim_bookmarks); the *_count columns mirror their cardinality.
type Engagement struct {
	Views          int64 `json:"views" gorm:"not null;default:0"`
	Shares         int64 `json:"shares" gorm:"not null;default:0"`
	LikesCount     int64 `json:"likes" gorm:"not null;default:0"`
	Dislikes       int64 `json:"dislikes" gorm:"not null;default:0"`
	BookmarksCount int64 `json:"bookmarks" gorm:"not null;default:0"`
	CommentsCount  int64 `json:"comments" gorm:"not null;default:0"`
}

// BeforeCreate assigns an id so the table does not depend on a database-side generator
func (c *Claim) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName sets the table name for the Claim model
func (Claim) TableName() string {
	return "claims"
}

// Judgment is one reviewer's verdict; the list is append-only
type Judgment struct {
	ID         uuid.UUID          `json:"id" gorm:"primaryKey;type:uuid"`
	ClaimID    uuid.UUID          `json:"claim_id" gorm:"type:uuid;not null;index"`
	ReviewerID uuid.UUID          `json:"reviewer_id" gorm:"type:uuid;not null;index"`
	Status     VerificationStatus `json:"status" gorm:"type:varchar(20);not null"`
	Score      int                `json:"score" gorm:"not null"`
	Comments   string             `json:"comments,omitempty" gorm:"type:text"`
	CreatedAt  time.Time          `json:"timestamp" gorm:"autoCreateTime;index"`
}

func (j *Judgment) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

func (Judgment) TableName() string {
	return "judgments"
}

// Comment is a discussion entry on a claim; ParentID links replies
type Comment struct {
	ID        uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	ClaimID   uuid.UUID  `json:"claim_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID  `json:"user_id" gorm:"type:uuid;not null;index"`
	ParentID  *uuid.UUID `json:"parent_id,omitempty" gorm:"type:uuid;index"`
	Text      string     `json:"text" gorm:"type:text;not null"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime"`

	Replies []*Comment `json:"replies,omitempty" gorm:"-"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Comment) TableName() string {
	return "comments"
}

// ClaimLike records that a user likes a claim; at most one row per pair
type ClaimLike struct {
	ClaimID   uuid.UUID `json:"claim_id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"user_id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (ClaimLike) TableName() string {
	return "claim_likes"
}

// ClaimBookmark records that a user bookmarked a claim
type ClaimBookmark struct {
	ClaimID   uuid.UUID `json:"claim_id" gorm:"primaryKey;type:uuid"`
	UserID    uuid.UUID `json:"user_id" gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (ClaimBookmark) TableName() string {
	return "claim_bookmarks"
}
