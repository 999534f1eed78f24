package handlers

import (
	"net/http"

	"open-factcheck/internal/logger"
	"open-factcheck/internal/ranking"

	"github.com/gin-gonic/gin"
)

// RankingHandler serves trending claims and the leaderboard
type RankingHandler struct {
	ranking *ranking.Service
	log     *logger.Logger
}

func NewRankingHandler(svc *ranking.Service, log *logger.Logger) *RankingHandler {
	return &RankingHandler{ranking: svc, log: log.With("handler", "RankingHandler")}
}

// Trending handles GET /api/trending
func (h *RankingHandler) Trending(c *gin.Context) {
	limit, err := queryInt(c, "limit", ranking.DefaultLimit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	claims, err := h.ranking.Trending(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claims": claimViews(claims)})
}

// Leaderboard handles GET /api/leaderboard
func (h *RankingHandler) Leaderboard(c *gin.Context) {
	limit, err := queryInt(c, "limit", ranking.DefaultLimit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	period := ranking.Period(c.DefaultQuery("period", string(ranking.PeriodAll)))
	rows, err := h.ranking.Leaderboard(c.Request.Context(), limit, period)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": period, "users": rows})
}

type trendingRequest struct {
	Trending *bool `json:"trending"`
}

// SetTrending handles PUT /api/admin/claims/:id/trending
func (h *RankingHandler) SetTrending(c *gin.Context) {
	id, err := paramUUID(c, "id")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	var req trendingRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.log, err)
		return
	}
	if req.Trending == nil {
		respondError(c, h.log, errMissingTrending)
		return
	}
	claim, err := h.ranking.SetTrending(c.Request.Context(), currentUser(c).ID, id, *req.Trending)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, claimView(claim))
}
