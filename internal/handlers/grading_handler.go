package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/fill-blank-service/internal/models"
	"github.com/SAP-F-2025/fill-blank-service/internal/services"
	"github.com/SAP-F-2025/fill-blank-service/internal/utils"
)

type GradingHandler struct {
	BaseHandler
	gradingService      services.GradingService
	importExportService services.ImportExportService
}

func NewGradingHandler(
	gradingService services.GradingService,
	importExportService services.ImportExportService,
	logger utils.Logger,
) *GradingHandler {
	return &GradingHandler{
		BaseHandler:         NewBaseHandler(logger),
		gradingService:      gradingService,
		importExportService: importExportService,
	}
}

// CheckAnswer evaluates a submission without storing it
// @Summary Check answer
// @Tags grading
// @Param id path uint true "Question ID"
// @Param body body services.SubmitAnswerRequest true "Submission"
// @Success 200 {object} services.GradeResult
// @Router /grading/questions/{id}/check [post]
func (h *GradingHandler) CheckAnswer(c *gin.Context) {
	questionID := h.parseIDParam(c, "id")
	if questionID == 0 {
		return
	}

	var req services.SubmitAnswerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.gradingService.Check(c.Request.Context(), questionID, &req, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SubmitAnswer grades and stores a student submission
// @Summary Submit answer
// @Tags grading
// @Param id path uint true "Question ID"
// @Param body body services.SubmitAnswerRequest true "Submission"
// @Success 201 {object} services.GradeResult
// @Failure 422 {object} ErrorResponse
// @Router /grading/questions/{id}/answers [post]
func (h *GradingHandler) SubmitAnswer(c *gin.Context) {
	questionID := h.parseIDParam(c, "id")
	if questionID == 0 {
		return
	}
	h.LogRequest(c, "Submitting answer", "question_id", questionID)

	var req services.SubmitAnswerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.gradingService.SubmitAnswer(c.Request.Context(), questionID, &req, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListAnswers lists stored answers of a question for its author
// @Summary List answers
// @Tags grading
// @Param id path uint true "Question ID"
// @Param student_id query string false "Student"
// @Param needs_review query bool false "Only answers needing review"
// @Success 200 {object} services.AnswerListResponse
// @Router /grading/questions/{id}/answers [get]
func (h *GradingHandler) ListAnswers(c *gin.Context) {
	questionID := h.parseIDParam(c, "id")
	if questionID == 0 {
		return
	}

	var filters models.AnswerFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err, err.Error())
		return
	}

	resp, err := h.gradingService.ListAnswers(c.Request.Context(), questionID, filters, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetAnswerReview returns the verdicts of a graded answer with the key
// @Summary Answer review
// @Tags grading
// @Param answer_id path uint true "Answer ID"
// @Success 200 {object} models.AnswerReview
// @Router /grading/answers/{answer_id} [get]
func (h *GradingHandler) GetAnswerReview(c *gin.Context) {
	answerID := h.parseIDParam(c, "answer_id")
	if answerID == 0 {
		return
	}

	review, err := h.gradingService.GetAnswerReview(c.Request.Context(), answerID, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// RegradeQuestion re-evaluates every stored answer of a question
// @Summary Regrade question
// @Tags grading
// @Param id path uint true "Question ID"
// @Success 200 {object} services.RegradeResult
// @Router /grading/questions/{id}/regrade [post]
func (h *GradingHandler) RegradeQuestion(c *gin.Context) {
	questionID := h.parseIDParam(c, "id")
	if questionID == 0 {
		return
	}
	h.LogRequest(c, "Regrading question", "question_id", questionID)

	result, err := h.gradingService.RegradeQuestion(c.Request.Context(), questionID, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportAnswers downloads the graded answers of a question as a workbook
// @Summary Export graded answers
// @Tags grading
// @Param id path uint true "Question ID"
// @Router /grading/questions/{id}/export [get]
func (h *GradingHandler) ExportAnswers(c *gin.Context) {
	questionID := h.parseIDParam(c, "id")
	if questionID == 0 {
		return
	}

	data, err := h.importExportService.ExportAnswersToExcel(c.Request.Context(), questionID, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	sendAttachment(c, fmt.Sprintf("question_%d_answers.xlsx", questionID), xlsxContentType, data)
}
