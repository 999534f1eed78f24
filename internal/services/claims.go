package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"open-factcheck/internal/apperr"
	"open-factcheck/internal/events"
	"open-factcheck/internal/logger"
	"open-factcheck/internal/metrics"
	"open-factcheck/internal/models"
	"open-factcheck/internal/policy"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ClaimService handles claim submission, reads, comments and soft deletes
type ClaimService struct {
	db         *gorm.DB
	log        *logger.Logger
	pub        events.Publisher
	engagement *EngagementService
	now        func() time.Time
}

// NewClaimService creates a new claim service
func NewClaimService(db *gorm.DB, log *logger.Logger, pub events.Publisher, engagement *EngagementService) *ClaimService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &ClaimService{
		db:         db,
		log:        log.With("service", "ClaimService"),
		pub:        pub,
		engagement: engagement,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SubmitInput is the user-provided part of a new claim
type SubmitInput struct {
	Text               string           `json:"text"`
	URL                string           `json:"url"`
	MediaRef           string           `json:"media_ref"`
	MediaKind          models.MediaKind `json:"media_kind"`
	OriginalLanguage   string           `json:"original_language"`
	TranslatedLanguage string           `json:"translated_language"`
	Category           models.Category  `json:"category"`
	Tags               []string         `json:"tags"`
	Priority           models.Priority  `json:"priority"`
	Language           string           `json:"language"`
	Region             string           `json:"region"`
}

func (in *SubmitInput) validate() ([]string, error) {
	errs := fieldErrors{}
	validateClaimText(in.Text, errs)
	in.URL = strings.TrimSpace(in.URL)
	if in.URL != "" && !validURL(in.URL) {
		errs.add("url", "must be a valid http(s) URL")
	}
	in.MediaRef = strings.TrimSpace(in.MediaRef)
	if in.MediaRef != "" && !in.MediaKind.Valid() {
		errs.add("media_kind", "must be one of image, video, audio, document")
	}
	if in.MediaRef == "" && in.MediaKind != "" {
		errs.add("media_ref", "is required when media_kind is set")
	}
	if !in.Category.Valid() {
		errs.add("category", "unknown category %q", in.Category)
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	} else if !in.Priority.Valid() {
		errs.add("priority", "must be one of low, medium, high, urgent")
	}
	tags := normalizeTags(in.Tags, errs)

	if len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}
	return tags, nil
}

// Submit creates a pending claim owned by submitterID and counts it on the
// submitter's stats
func (s *ClaimService) Submit(ctx context.Context, in SubmitInput, submitterID uuid.UUID) (*models.Claim, error) {
	tags, err := in.validate()
	if err != nil {
		return nil, err
	}

	now := s.now()
	claim := &models.Claim{
		Content: models.ClaimContent{
			Text:               strings.TrimSpace(in.Text),
			URL:                in.URL,
			MediaRef:           in.MediaRef,
			MediaKind:          in.MediaKind,
			OriginalLanguage:   in.OriginalLanguage,
			TranslatedLanguage: in.TranslatedLanguage,
		},
		Verification: models.Verification{
			Status:  models.StatusPending,
			Sources: datatypes.JSONSlice[models.Source]{},
		},
		Metadata: models.ClaimMetadata{
			SubmittedBy: submitterID,
			Category:    in.Category,
			Tags:        tags,
			Priority:    in.Priority,
			Language:    in.Language,
			Region:      in.Region,
		},
		IsActive:      true,
		IsPublic:      true,
		SchemaVersion: models.ClaimSchemaVersion,
		CreatedAt:     now,
		UpdatedAt:     now,
		Judgments:     []models.Judgment{},
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadActor(ctx, tx, submitterID, policy.ActionSubmit); err != nil {
			return err
		}
		if err := tx.Create(claim).Error; err != nil {
			return apperr.ServerFault(err, "failed to create claim")
		}
		return tx.Model(&models.User{}).Where("id = ?", submitterID).
			UpdateColumn("stats_verifications_count", gorm.Expr("stats_verifications_count + 1")).Error
	})
	if err != nil {
		return nil, fault(s.log, err, "failed to submit claim", "submitter_id", submitterID)
	}

	metrics.ClaimsSubmitted.Inc()
	s.log.Info("Claim submitted", "claim_id", claim.ID, "category", claim.Metadata.Category, "submitter_id", submitterID)
	publish(ctx, s.log, s.pub, events.Event{
		Type:    events.TypeClaimSubmitted,
		ClaimID: claim.ID,
		ActorID: &submitterID,
		Data:    map[string]interface{}{"category": claim.Metadata.Category},
	})
	return claim, nil
}

// Get returns a public claim and counts the read as a view
func (s *ClaimService) Get(ctx context.Context, claimID uuid.UUID) (*models.Claim, error) {
	if err := s.engagement.RecordView(ctx, claimID); err != nil {
		return nil, err
	}
	claim, err := loadClaim(ctx, s.db, claimID)
	if err != nil {
		return nil, fault(s.log, err, "failed to load claim", "claim_id", claimID)
	}
	return claim, nil
}

// Sort orders accepted by List
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortViews  = "views"
	SortViral  = "viral"
	SortScore  = "score"
)

var sortOrders = map[string]string{
	SortNewest: "created_at DESC",
	SortOldest: "created_at ASC",
	SortViews:  "views DESC",
	SortViral:  "viral_score DESC",
	SortScore:  "verification_score DESC",
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListFilter narrows and orders a claim listing
type ListFilter struct {
	Status   models.VerificationStatus
	Category models.Category
	Query    string
	Sort     string
	Page     int
	Limit    int
}

// ListResult is one page of claims
type ListResult struct {
	Claims []models.Claim `json:"claims"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}

// List returns active public claims; list reads do not count views
func (s *ClaimService) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	errs := fieldErrors{}
	if f.Status != "" && !f.Status.Valid() {
		errs.add("status", "unknown status %q", f.Status)
	}
	if f.Category != "" && !f.Category.Valid() {
		errs.add("category", "unknown category %q", f.Category)
	}
	if f.Sort == "" {
		f.Sort = SortNewest
	}
	order, ok := sortOrders[f.Sort]
	if !ok {
		errs.add("sort", "must be one of newest, oldest, views, viral, score")
	}
	if len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Page < 1 {
		f.Page = 1
	}

	q := s.db.WithContext(ctx).Model(&models.Claim{}).
		Where("is_active = ? AND is_public = ?", true, true)
	if f.Status != "" {
		q = q.Where("verification_status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if text := strings.TrimSpace(f.Query); text != "" {
		q = q.Where("LOWER(content_text) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(text))+"%")
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fault(s.log, err, "failed to count claims")
	}

	claims := []models.Claim{}
	err := q.Preload("Judgments", orderJudgments).
		Order(order).
		Order("id ASC").
		Limit(f.Limit).
		Offset((f.Page - 1) * f.Limit).
		Find(&claims).Error
	if err != nil {
		return nil, fault(s.log, err, "failed to list claims")
	}

	return &ListResult{Claims: claims, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`%`, `\%`, `_`, `\_`).Replace(s)
}

// Comment appends a comment, or a reply when parentID is set
func (s *ClaimService) Comment(ctx context.Context, claimID, userID uuid.UUID, text string, parentID *uuid.UUID) (*models.Comment, error) {
	errs := fieldErrors{}
	validateCommentText(text, errs)
	if len(errs) > 0 {
		return nil, apperr.Validation(errs)
	}

	now := s.now()
	comment := &models.Comment{
		ClaimID:   claimID,
		UserID:    userID,
		ParentID:  parentID,
		Text:      strings.TrimSpace(text),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadActor(ctx, tx, userID, policy.ActionComment); err != nil {
			return err
		}
		if _, err := lockActiveClaim(ctx, tx, claimID); err != nil {
			return err
		}
		if parentID != nil {
			var parent models.Comment
			err := tx.Where("id = ? AND claim_id = ?", *parentID, claimID).First(&parent).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ValidationField("parent_id", "must reference a comment on the same claim")
			}
			if err != nil {
				return apperr.ServerFault(err, "failed to load parent comment")
			}
		}
		if err := tx.Create(comment).Error; err != nil {
			return apperr.ServerFault(err, "failed to create comment")
		}
		return bump(ctx, tx, claimID, counterDelta{comments: 1}, now)
	})
	if err != nil {
		return nil, fault(s.log, err, "failed to add comment", "claim_id", claimID, "user_id", userID)
	}

	metrics.IncEngagement("comment")
	return comment, nil
}

// Comments returns a claim's comments as a tree of root comments with nested
// replies, each level oldest first
func (s *ClaimService) Comments(ctx context.Context, claimID uuid.UUID) ([]*models.Comment, error) {
	var exists int64
	if err := s.db.WithContext(ctx).Model(&models.Claim{}).
		Where("id = ? AND is_active = ? AND is_public = ?", claimID, true, true).
		Count(&exists).Error; err != nil {
		return nil, fault(s.log, err, "failed to load claim", "claim_id", claimID)
	}
	if exists == 0 {
		return nil, apperr.NotFound("claim %s not found", claimID)
	}

	var flat []*models.Comment
	if err := s.db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("created_at ASC").Order("id ASC").
		Find(&flat).Error; err != nil {
		return nil, fault(s.log, err, "failed to load comments", "claim_id", claimID)
	}
	return threadComments(flat), nil
}

func threadComments(flat []*models.Comment) []*models.Comment {
	byID := make(map[uuid.UUID]*models.Comment, len(flat))
	for _, c := range flat {
		byID[c.ID] = c
	}
	roots := []*models.Comment{}
	for _, c := range flat {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok {
				parent.Replies = append(parent.Replies, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	return roots
}

// Deactivate soft-deletes a claim. Owners may remove their own claims;
// anyone else needs the deactivate grant.
func (s *ClaimService) Deactivate(ctx context.Context, claimID, actorID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := lockActiveClaim(ctx, tx, claimID)
		if err != nil {
			return err
		}
		var user models.User
		if err := tx.Where("id = ?", actorID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user %s not found", actorID)
			}
			return apperr.ServerFault(err, "failed to load user")
		}
		actor := policy.ActorFromUser(&user)
		owner := actor.Active && claim.Metadata.SubmittedBy == actorID
		if !owner {
			if err := policy.Check(actor, policy.ActionDeactivate); err != nil {
				metrics.IncDenied(string(policy.ActionDeactivate))
				return err
			}
		}
		return tx.Model(&models.Claim{}).Where("id = ?", claimID).
			UpdateColumns(map[string]interface{}{"is_active": false, "updated_at": s.now()}).Error
	})
	if err != nil {
		return fault(s.log, err, "failed to deactivate claim", "claim_id", claimID)
	}
	s.log.Info("Claim deactivated", "claim_id", claimID, "actor_id", actorID)
	return nil
}
