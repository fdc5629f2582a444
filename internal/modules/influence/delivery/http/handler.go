package http

import (
	"net/http"
	"strconv"

	influenceService "anoa.com/dailydebate/internal/modules/influence/service"
	"anoa.com/dailydebate/pkg/response"
	"github.com/gin-gonic/gin"
)

type InfluenceHandler struct {
	service influenceService.InfluenceService
}

func NewInfluenceHandler(service influenceService.InfluenceService) *InfluenceHandler {
	return &InfluenceHandler{service: service}
}

func (h *InfluenceHandler) GetQuestionRanking(c *gin.Context) {
	questionID, err := response.ParamID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	ranking, err := h.service.GetQuestionRanking(c.Request.Context(), questionID, limit)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": ranking})
}
