package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/fill-blank-service/internal/events"
	"github.com/SAP-F-2025/fill-blank-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/fill-blank-service/internal/services"
	"github.com/SAP-F-2025/fill-blank-service/internal/utils"
	"github.com/SAP-F-2025/fill-blank-service/internal/validator"
	"github.com/SAP-F-2025/fill-blank-service/pkg"
)

const (
	author  = "teacher-1"
	student = "student-1"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := pkg.OpenDatabase("sqlite", ":memory:", logger.Silent)
	require.NoError(t, err)
	require.NoError(t, pkg.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := services.NewServiceManager(postgres.NewRepository(db), nil, events.NewMockEventPublisher(nil),
		validator.New(), log, services.ManagerConfig{CacheTTL: time.Minute})
	return NewRouter(manager, utils.NewSlogLogger(log))
}

func doJSON(t *testing.T, router *gin.Engine, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(UserIDHeader, userID)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func createCapitals(t *testing.T, router *gin.Engine) uint {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/questions", author, gin.H{
		"type":   "fill_blank_text",
		"text":   "{BLANK_1} is the capital of {BLANK_2}.",
		"points": 4,
		"correct_answers": []gin.H{
			{"blank_id": 1, "answer_text": "Paris"},
			{"blank_id": 2, "answer_text": "France"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	decode(t, w, &created)
	assert.Equal(t, "draft", created.Status)
	return created.ID
}

func TestHealthCheck(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(utils.RequestIDHeader))
}

func TestUserContext_RequiresHeader(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/questions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "UNAUTHENTICATED", resp.Code)
}

func TestQuestionHandler_ErrorStatuses(t *testing.T) {
	router := setupRouter(t)
	id := createCapitals(t, router)

	tests := []struct {
		name   string
		method string
		path   string
		user   string
		body   interface{}
		status int
	}{
		{"bad id", http.MethodGet, "/api/v1/questions/abc", author, nil, http.StatusBadRequest},
		{"zero id", http.MethodGet, "/api/v1/questions/0", author, nil, http.StatusBadRequest},
		{"missing question", http.MethodGet, "/api/v1/questions/999", author, nil, http.StatusNotFound},
		{"other author", http.MethodGet, fmt.Sprintf("/api/v1/questions/%d", id), student, nil, http.StatusForbidden},
		{"unknown type", http.MethodPost, "/api/v1/questions", author, gin.H{"type": "essay", "text": "{BLANK_1}"}, http.StatusBadRequest},
		{"malformed body", http.MethodPut, fmt.Sprintf("/api/v1/questions/%d/text", id), author, "not an object", http.StatusBadRequest},
		{"draft student view", http.MethodGet, fmt.Sprintf("/api/v1/questions/%d/student-view", id), student, nil, http.StatusUnprocessableEntity},
		{"options on text question", http.MethodPut, fmt.Sprintf("/api/v1/questions/%d/options", id), author,
			gin.H{"answer_options": []gin.H{{"blank_id": 1, "option_text": "x"}}}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestQuestionHandler_PublishBlockedByValidation(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/questions", author, gin.H{
		"type": "fill_blank_text",
		"text": "Water boils at {BLANK_1} degrees.",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID uint `json:"id"`
	}
	decode(t, w, &created)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/questions/%d/validate", created.ID), author, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var validation struct {
		Valid bool `json:"valid"`
	}
	decode(t, w, &validation)
	assert.False(t, validation.Valid)

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/questions/%d/publish", created.ID), author, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	decode(t, w, &resp)
	assert.Equal(t, "VALIDATION_FAILED", resp.Code)
}

func TestQuestionHandler_UpdateTextSyncsBlanks(t *testing.T) {
	router := setupRouter(t)
	id := createCapitals(t, router)

	w := doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/v1/questions/%d/text", id), author, gin.H{
		"text": "{BLANK_1} is a city in {BLANK_3}.",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		BlankIDs        []int `json:"blank_ids"`
		AddedBlankIDs   []int `json:"added_blank_ids"`
		RemovedBlankIDs []int `json:"removed_blank_ids"`
		PrunedAnswers   int64 `json:"pruned_answers"`
	}
	decode(t, w, &result)
	assert.Equal(t, []int{1, 3}, result.BlankIDs)
	assert.Equal(t, []int{3}, result.AddedBlankIDs)
	assert.Equal(t, []int{2}, result.RemovedBlankIDs)
	assert.Equal(t, int64(1), result.PrunedAnswers)
}

func TestQuestionHandler_Preview(t *testing.T) {
	router := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/questions/preview", author, gin.H{
		"type": "fill_blank_dropdown",
		"text": "Pick {BLANK_2} then {BLANK_1} and {BLANK_2} again",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		BlankIDs    []int  `json:"blank_ids"`
		Occurrences int    `json:"occurrences"`
		Rendered    string `json:"rendered"`
	}
	decode(t, w, &result)
	assert.Equal(t, []int{1, 2}, result.BlankIDs)
	assert.Equal(t, 3, result.Occurrences)
	assert.Equal(t, "Pick ___ then ___ and ___ again", result.Rendered)
}

func TestGradingHandler_SubmitAndReview(t *testing.T) {
	router := setupRouter(t)
	id := createCapitals(t, router)

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/questions/%d/publish", id), author, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/questions/%d/student-view", id), student, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "Paris")

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/grading/questions/%d/answers", id), student, gin.H{
		"blanks": []gin.H{
			{"blank_id": 1, "answer": " paris "},
			{"blank_id": 2, "answer": "Germany"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var graded struct {
		AnswerID     uint             `json:"answer_id"`
		Blanks       map[string]*bool `json:"blanks"`
		AllCorrect   bool             `json:"all_correct"`
		PointsEarned float64          `json:"points_earned"`
	}
	decode(t, w, &graded)
	assert.NotZero(t, graded.AnswerID)
	assert.False(t, graded.AllCorrect)
	assert.Zero(t, graded.PointsEarned)
	require.NotNil(t, graded.Blanks["1"])
	assert.True(t, *graded.Blanks["1"])
	require.NotNil(t, graded.Blanks["2"])
	assert.False(t, *graded.Blanks["2"])

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/grading/answers/%d", graded.AnswerID), student, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"accepted_answers":["France"]`)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/grading/answers/%d", graded.AnswerID), "someone-else", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/grading/questions/%d/regrade", id), author, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var regrade services.RegradeResult
	decode(t, w, &regrade)
	assert.Equal(t, 1, regrade.AnswerCount)
	assert.Zero(t, regrade.ChangedCount)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/grading/questions/%d/answers", id), author, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var list services.AnswerListResponse
	decode(t, w, &list)
	assert.Equal(t, int64(1), list.Total)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/grading/questions/%d/export", id), author, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
}

func TestGradingHandler_CheckRejectsBadPayload(t *testing.T) {
	router := setupRouter(t)
	id := createCapitals(t, router)

	w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/grading/questions/%d/check", id), author, gin.H{
		"blanks": gin.H{"1": "Paris"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/api/v1/grading/questions/%d/check", id), author, gin.H{
		"blanks": []gin.H{{"blank_id": 1, "answer": "Paris"}, {"blank_id": 2, "answer": "France"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result services.GradeResult
	decode(t, w, &result)
	assert.True(t, result.AllCorrect)
	assert.Zero(t, result.AnswerID)
}

func TestQuestionHandler_ImportExport(t *testing.T) {
	router := setupRouter(t)
	id := createCapitals(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/v1/questions/export", author, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/questions/export?ids=%d&format=csv", id), author, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	exported := w.Body.Bytes()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "questions.csv")
	require.NoError(t, err)
	_, err = part.Write(exported)
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/questions/import", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set(UserIDHeader, "teacher-2")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var summary struct {
		SuccessCount int `json:"success_count"`
	}
	decode(t, rec, &summary)
	assert.Equal(t, 1, summary.SuccessCount)
}
