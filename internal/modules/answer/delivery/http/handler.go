package http

import (
	"net/http"
	"strconv"

	"anoa.com/dailydebate/internal/entity"
	answerDto "anoa.com/dailydebate/internal/modules/answer/dto"
	answerRepo "anoa.com/dailydebate/internal/modules/answer/repository"
	answerService "anoa.com/dailydebate/internal/modules/answer/service"
	identityService "anoa.com/dailydebate/internal/modules/identity/service"
	"anoa.com/dailydebate/pkg/response"
	"anoa.com/dailydebate/pkg/validator"
	"github.com/gin-gonic/gin"
)

type AnswerHandler struct {
	service answerService.AnswerService
}

func NewAnswerHandler(service answerService.AnswerService) *AnswerHandler {
	return &AnswerHandler{service: service}
}

func (h *AnswerHandler) CreateAnswer(c *gin.Context) {
	questionID, err := response.ParamID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req answerDto.CreateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	answer, err := h.service.CreateAnswer(c.Request.Context(), answerService.CreateAnswerInput{
		QuestionID: questionID,
		UserID:     response.OptionalUserID(c),
		IP:         identityService.NormalizeIP(c.ClientIP()),
		Side:       entity.Side(req.Side),
		Body:       req.Body,
	})
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": answerDto.AnswerResponse{
		ID:         answer.ID,
		QuestionID: answer.QuestionID,
		Side:       string(answer.Side),
		Body:       answer.Body,
		CreatedAt:  answer.CreatedAt,
	}})
}

func (h *AnswerHandler) GetResults(c *gin.Context) {
	questionID, err := response.ParamID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	results, err := h.service.GetResults(c.Request.Context(), questionID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}

func (h *AnswerHandler) ListAnswers(c *gin.Context) {
	questionID, err := response.ParamID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	rows, err := h.service.ListAnswers(c.Request.Context(), answerRepo.ListFilter{
		QuestionID: questionID,
		Side:       entity.Side(c.Query("side")),
		Sort:       c.DefaultQuery("sort", answerRepo.SortLikesDesc),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// TopAnswers returns the most liked answers for one side, or for both sides
// when no side is given.
func (h *AnswerHandler) TopAnswers(c *gin.Context) {
	questionID, err := response.ParamID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	ctx := c.Request.Context()

	if side := c.Query("side"); side != "" {
		rows, err := h.service.TopAnswers(ctx, questionID, entity.Side(side), limit)
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rows})
		return
	}

	top := make(map[entity.Side][]answerRepo.AnswerRow, 2)
	for _, side := range []entity.Side{entity.SideA, entity.SideB} {
		rows, err := h.service.TopAnswers(ctx, questionID, side, limit)
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		top[side] = rows
	}

	c.JSON(http.StatusOK, gin.H{"data": top})
}

func (h *AnswerHandler) MyAnswer(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	questionID, err := response.ParamID(c, "id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	row, err := h.service.MyAnswer(c.Request.Context(), questionID, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": row})
}

func (h *AnswerHandler) Like(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	answerID, err := response.ParamID(c, "answerId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.service.LikeAnswer(c.Request.Context(), answerID, userID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": answerDto.LikeResponse{AnswerID: answerID, Liked: true, Changed: true}})
}

func (h *AnswerHandler) Unlike(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	answerID, err := response.ParamID(c, "answerId")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	removed, err := h.service.UnlikeAnswer(c.Request.Context(), answerID, userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": answerDto.LikeResponse{AnswerID: answerID, Liked: false, Changed: removed}})
}
