package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserSchemaVersion is stamped on every user document written by this build
const UserSchemaVersion = 1

// User is an account as seen by the fact-check core. Registration and
// profile editing live elsewhere; the core only reads the role and bumps the
// two contribution counters.
type User struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Username    string    `json:"username" gorm:"uniqueIndex;not null"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role" gorm:"type:varchar(20);not null;default:user"`

	Reputation Reputation `json:"reputation" gorm:"embedded;embeddedPrefix:reputation_"`
	Stats      UserStats  `json:"stats" gorm:"embedded;embeddedPrefix:stats_"`

	IsActive      bool `json:"is_active" gorm:"not null;default:true"`
	SchemaVersion int  `json:"schema_version" gorm:"not null;default:1"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type Reputation struct {
	Score int `json:"score" gorm:"not null;default:0"`
}

// UserStats are contribution counters. VerificationsCount is bumped by
// submissions and ContributionsCount by reviews.
type UserStats struct {
	VerificationsCount int     `json:"verifications_count" gorm:"not null;default:0"`
	ContributionsCount int     `json:"contributions_count" gorm:"not null;default:0"`
	Accuracy           float64 `json:"accuracy" gorm:"not null;default:0"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.SchemaVersion == 0 {
		u.SchemaVersion = UserSchemaVersion
	}
	return nil
}

// TableName sets the table name for the User model
func (User) TableName() string {
	return "users"
}
