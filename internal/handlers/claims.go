package handlers

import (
	"net/http"

	"open-factcheck/internal/logger"
	"open-factcheck/internal/models"
	"open-factcheck/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ClaimHandler serves claim submission, reads, verification and engagement
type ClaimHandler struct {
	claims       *services.ClaimService
	verification *services.VerificationService
	engagement   *services.EngagementService
	log          *logger.Logger
}

// NewClaimHandler creates a new claim handler
func NewClaimHandler(claims *services.ClaimService, verification *services.VerificationService, engagement *services.EngagementService, log *logger.Logger) *ClaimHandler {
	return &ClaimHandler{
		claims:       claims,
		verification: verification,
		engagement:   engagement,
		log:          log.With("handler", "ClaimHandler"),
	}
}

// Submit handles POST /api/claims
func (h *ClaimHandler) Submit(c *gin.Context) {
	var in services.SubmitInput
	if err := bindJSON(c, &in); err != nil {
		respondError(c, h.log, err)
		return
	}
	claim, err := h.claims.Submit(c.Request.Context(), in, currentUser(c).ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, claimView(claim))
}

// List handles GET /api/claims
func (h *ClaimHandler) List(c *gin.Context) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	limit, err := queryInt(c, "limit", services.DefaultPageSize)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	res, err := h.claims.List(c.Request.Context(), services.ListFilter{
		Status:   models.VerificationStatus(c.Query("status")),
		Category: models.Category(c.Query("category")),
		Query:    c.Query("q"),
		Sort:     c.Query("sort"),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"claims": claimViews(res.Claims),
		"meta": gin.H{
			"total": res.Total,
			"page":  res.Page,
			"limit": res.Limit,
		},
	})
}

// Get handles GET /api/claims/:id and counts a view
func (h *ClaimHandler) Get(c *gin.Context) {
	id, err := paramUUID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	claim, err := h.claims.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, claimView(claim))
}

// Verify handles POST /api/claims/:id/verify
func (h *ClaimHandler) Verify(c *gin.Context) {
	id, err := paramUUID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var verdict services.Verdict
	if err := bindJSON(c, &verdict); err != nil {
		respondError(c, h.log, err)
		return
	}
	claim, err := h.verification.Verify(c.Request.Context(), id, currentUser(c).ID, verdict)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, claimView(claim))
}

type commentRequest struct {
	Text     string     `json:"text"`
	ParentID *uuid.UUID `json:"parent_id"`
}

// AddComment handles POST /api/claims/:id/comments
func (h *ClaimHandler) AddComment(c *gin.Context) {
	id, err := paramUUID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	comment, err := h.claims.Comment(c.Request.Context(), id, currentUser(c).ID, req.Text, req.ParentID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListComments handles GET /api/claims/:id/comments
func (h *ClaimHandler) ListComments(c *gin.Context) {
	id, err := paramUUID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	comments, err := h.claims.Comments(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// Like handles POST /api/claims/:id/like
func (h *ClaimHandler) Like(c *gin.Context) {
	id, err := paramUUID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	res, err := h.engagement.ToggleLike(c.Request.Context(), id, currentUser(c).ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"action": res.Action(), "liked": res.Liked, "likes": res.Count})
}

// Bookmark handles POST /api/claims/:id/bookmark
func (h *ClaimHandler) Bookmark(c *gin.Context) {
	id, err := paramUUID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	res, err := h.engagement.ToggleBookmark(c.Request.Context(), id, currentUser(c).ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Share handles POST /api/claims/:id/share
func (h *ClaimHandler) Share(c *gin.Context) {
	id, err := paramUUID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.engagement.RecordShare(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /api/claims/:id
func (h *ClaimHandler) Delete(c *gin.Context) {
	id, err := paramUUID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if err := h.claims.Deactivate(c.Request.Context(), id, currentUser(c).ID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
