package controller

import (
	"flagforge/internal/leaderboard/service"
	"flagforge/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// LeaderboardController handles leaderboard HTTP endpoints.
type LeaderboardController struct {
	leaderboardService *service.LeaderboardService
}

// NewLeaderboardController creates a new LeaderboardController.
func NewLeaderboardController(leaderboardService *service.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{leaderboardService: leaderboardService}
}

// Board handles the full ranked leaderboard query.
func (h *LeaderboardController) Board(c *gin.Context) {
	entries, err := h.leaderboardService.Board(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, entries)
}

// Me handles the caller's own rank query.
func (h *LeaderboardController) Me(c *gin.Context) {
	entry, err := h.leaderboardService.RankOf(c.Request.Context(), c.GetString("username"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, entry)
}
