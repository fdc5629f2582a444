package http

import (
	"net/http"

	questionDto "anoa.com/dailydebate/internal/modules/question/dto"
	questionService "anoa.com/dailydebate/internal/modules/question/service"
	"anoa.com/dailydebate/pkg/response"
	"anoa.com/dailydebate/pkg/validator"
	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	service questionService.QuestionService
}

func NewQuestionHandler(service questionService.QuestionService) *QuestionHandler {
	return &QuestionHandler{service: service}
}

func (h *QuestionHandler) GetActive(c *gin.Context) {
	q, err := h.service.GetOrActivateActive(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": questionDto.NewQuestionResponse(q)})
}

func (h *QuestionHandler) GetByID(c *gin.Context) {
	id, err := response.ParamID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	q, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": questionDto.NewQuestionResponse(q)})
}

func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req questionDto.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	q, err := h.service.CreateQuestion(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": questionDto.NewQuestionResponse(q)})
}

// Rollover is the manual trigger for the daily transition.
func (h *QuestionHandler) Rollover(c *gin.Context) {
	result, err := h.service.Rollover(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp := questionDto.RolloverResponse{
		Outcome:    result.Outcome,
		Settlement: result.Settlement,
	}
	if result.Closed != nil {
		closed := questionDto.NewQuestionResponse(result.Closed)
		resp.Closed = &closed
	}
	if result.Activated != nil {
		activated := questionDto.NewQuestionResponse(result.Activated)
		resp.Activated = &activated
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
