package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/fill-blank-service/internal/models"
	"github.com/SAP-F-2025/fill-blank-service/internal/services"
	"github.com/SAP-F-2025/fill-blank-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type QuestionHandler struct {
	BaseHandler
	questionService     services.QuestionService
	importExportService services.ImportExportService
}

func NewQuestionHandler(
	questionService services.QuestionService,
	importExportService services.ImportExportService,
	logger utils.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:         NewBaseHandler(logger),
		questionService:     questionService,
		importExportService: importExportService,
	}
}

// CreateQuestion creates a draft fill-blank question
// @Summary Create question
// @Tags questions
// @Accept json
// @Produce json
// @Param question body services.CreateQuestionRequest true "Question data"
// @Success 201 {object} models.Question
// @Failure 400 {object} ErrorResponse
// @Router /questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	h.LogRequest(c, "Creating question")

	var req services.CreateQuestionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), &req, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

// ListQuestions lists the caller's questions and published questions of others
// @Summary List questions
// @Tags questions
// @Param type query string false "fill_blank_text or fill_blank_dropdown"
// @Param status query string false "draft or ready"
// @Param created_by query string false "Author"
// @Param search query string false "Text search"
// @Param page query int false "Page"
// @Param size query int false "Page size"
// @Success 200 {object} services.QuestionListResponse
// @Router /questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	var filters models.QuestionFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters", err, err.Error())
		return
	}

	resp, err := h.questionService.List(c.Request.Context(), filters, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetQuestion returns the author view of a question, including its key
// @Summary Get question
// @Tags questions
// @Param id path uint true "Question ID"
// @Success 200 {object} models.Question
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// DeleteQuestion soft deletes a question
// @Summary Delete question
// @Tags questions
// @Param id path uint true "Question ID"
// @Success 204
// @Router /questions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id, currentUser(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateText re-parses the question text and syncs the blank registry
// @Summary Update question text
// @Tags questions
// @Param id path uint true "Question ID"
// @Param body body services.UpdateTextRequest true "New text"
// @Success 200 {object} services.SyncResult
// @Router /questions/{id}/text [put]
func (h *QuestionHandler) UpdateText(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateTextRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.questionService.UpdateText(c.Request.Context(), id, &req, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateBlanks edits labels and placeholders of existing blanks
// @Summary Update blank configs
// @Tags questions
// @Param id path uint true "Question ID"
// @Param body body services.UpdateBlankConfigsRequest true "Blank configs"
// @Success 200 {object} models.Question
// @Router /questions/{id}/blanks [put]
func (h *QuestionHandler) UpdateBlanks(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateBlankConfigsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	question, err := h.questionService.UpdateBlankConfigs(c.Request.Context(), id, &req, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// SetCorrectAnswers replaces the free-text answer key
// @Summary Replace correct answers
// @Tags questions
// @Param id path uint true "Question ID"
// @Param body body services.SetCorrectAnswersRequest true "Answer key"
// @Success 200 {object} models.Question
// @Router /questions/{id}/correct-answers [put]
func (h *QuestionHandler) SetCorrectAnswers(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.SetCorrectAnswersRequest
	if !h.bindJSON(c, &req) {
		return
	}

	question, err := h.questionService.SetCorrectAnswers(c.Request.Context(), id, &req, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// SetOptions replaces the dropdown options
// @Summary Replace dropdown options
// @Tags questions
// @Param id path uint true "Question ID"
// @Param body body services.SetOptionsRequest true "Options"
// @Success 200 {object} models.Question
// @Router /questions/{id}/options [put]
func (h *QuestionHandler) SetOptions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.SetOptionsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	question, err := h.questionService.SetOptions(c.Request.Context(), id, &req, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

// ValidateQuestion returns the full validation report
// @Summary Validate question
// @Tags questions
// @Param id path uint true "Question ID"
// @Success 200 {object} fillblank.Report
// @Router /questions/{id}/validate [get]
func (h *QuestionHandler) ValidateQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	report, err := h.questionService.Validate(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":  report.Ready(),
		"report": report,
	})
}

// PublishQuestion marks a valid question ready
// @Summary Publish question
// @Tags questions
// @Param id path uint true "Question ID"
// @Success 200 {object} models.Question
// @Failure 400 {object} ErrorResponse
// @Router /questions/{id}/publish [post]
func (h *QuestionHandler) PublishQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	question, err := h.questionService.Publish(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Question published", Data: question})
}

// GetStudentView returns the question as a student sees it
// @Summary Student view
// @Tags questions
// @Param id path uint true "Question ID"
// @Success 200 {object} models.StudentView
// @Router /questions/{id}/student-view [get]
func (h *QuestionHandler) GetStudentView(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	view, err := h.questionService.GetStudentView(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// PreviewQuestion parses and syncs unsaved text for the editor
// @Summary Preview question
// @Tags questions
// @Param body body services.PreviewRequest true "Draft text"
// @Success 200 {object} services.PreviewResult
// @Router /questions/preview [post]
func (h *QuestionHandler) PreviewQuestion(c *gin.Context) {
	var req services.PreviewRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.questionService.Preview(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ImportQuestions imports questions from an uploaded .csv or .xlsx file
// @Summary Import questions
// @Tags questions
// @Accept multipart/form-data
// @Param file formData file true "Spreadsheet"
// @Success 200 {object} models.ImportSummary
// @Router /questions/import [post]
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "File is required", err)
		return
	}
	h.LogRequest(c, "Importing questions", "filename", header.Filename, "size", header.Size)

	file, err := header.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Cannot read uploaded file", err)
		return
	}
	defer file.Close()

	summary, err := h.importExportService.ImportQuestionsFromFile(c.Request.Context(), file, filepath.Base(header.Filename), currentUser(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ExportQuestions downloads the selected questions as a workbook, or as CSV
// when format=csv
// @Summary Export questions
// @Tags questions
// @Param ids query string true "Comma separated question ids"
// @Param format query string false "xlsx or csv"
// @Router /questions/export [get]
func (h *QuestionHandler) ExportQuestions(c *gin.Context) {
	ids, err := parseIDList(c.Query("ids"))
	if err != nil || len(ids) == 0 {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid ids", err, "ids must be a comma separated list of question ids")
		return
	}

	format := c.DefaultQuery("format", "xlsx")
	var data []byte
	contentType := xlsxContentType
	switch format {
	case "xlsx":
		data, err = h.importExportService.ExportQuestionsToExcel(c.Request.Context(), ids, currentUser(c))
	case "csv":
		data, err = h.importExportService.ExportQuestionsToCSV(c.Request.Context(), ids, currentUser(c))
		contentType = "text/csv"
	default:
		h.RespondWithError(c, http.StatusBadRequest, "Invalid format", nil, "format must be xlsx or csv")
		return
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	sendAttachment(c, fmt.Sprintf("questions_%s.%s", time.Now().Format("20060102_150405"), format), contentType, data)
}

func sendAttachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}
