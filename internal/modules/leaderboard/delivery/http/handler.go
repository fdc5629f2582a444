package http

import (
	"net/http"
	"strconv"

	leaderboardService "anoa.com/dailydebate/internal/modules/leaderboard/service"
	"anoa.com/dailydebate/pkg/response"
	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	service leaderboardService.LeaderboardService
}

func NewLeaderboardHandler(service leaderboardService.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	metric := c.DefaultQuery("by", "xp") // "xp", "influence", "streak", "power"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	leaderboard, err := h.service.GetLeaderboard(c.Request.Context(), metric, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": leaderboard})
}
