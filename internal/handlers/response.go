package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"open-factcheck/internal/apperr"
	"open-factcheck/internal/logger"
	"open-factcheck/internal/models"
	"open-factcheck/internal/render"
	"open-factcheck/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// APIError is the body of every error response
type APIError struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// respondError maps service errors onto HTTP statuses. Server faults get an
// opaque message; the cause has already been logged by the service.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var status int
	body := APIError{Message: err.Error(), Code: string(apperr.KindOf(err))}

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		status = http.StatusBadRequest
		body.Fields = apperr.FieldsOf(err)
	case apperr.KindPermissionDenied:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
		body.Message = "internal server error"
		var appErr *apperr.Error
		if !errors.As(err, &appErr) {
			log.Error("Unhandled error", "path", c.FullPath(), "error", err)
		}
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) && status != http.StatusInternalServerError {
		body.Message = appErr.Message
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: body})
}

var (
	errMissingTrending = apperr.ValidationField("trending", "is required")
	errBadClaimFilter  = apperr.ValidationField("claim_id", "must be a UUID")
)

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorEnvelope{Error: APIError{Message: message, Code: "unauthorized"}})
}

func paramUUID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.ValidationField(name, "must be a UUID")
	}
	return id, nil
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.ValidationField(name, "must be an integer")
	}
	return n, nil
}

func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.ValidationField("body", "invalid JSON: "+err.Error())
	}
	return nil
}

// ClaimView is a claim as served over HTTP
type ClaimView struct {
	*models.Claim
	CredibilityLevel string `json:"credibility_level"`
	NotesHTML        string `json:"notes_html,omitempty"`
}

func claimView(c *models.Claim) ClaimView {
	return ClaimView{
		Claim:            c,
		CredibilityLevel: services.CredibilityLevel(c.Verification.Score),
		NotesHTML:        render.Notes(c.Verification.Notes),
	}
}

func claimViews(claims []models.Claim) []ClaimView {
	out := make([]ClaimView, len(claims))
	for i := range claims {
		out[i] = claimView(&claims[i])
	}
	return out
}
