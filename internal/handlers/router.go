package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/fill-blank-service/internal/services"
	"github.com/SAP-F-2025/fill-blank-service/internal/utils"
)

type HandlerManager struct {
	questionHandler *QuestionHandler
	gradingHandler  *GradingHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		questionHandler: NewQuestionHandler(serviceManager.Question(), serviceManager.ImportExport(), logger),
		gradingHandler:  NewGradingHandler(serviceManager.Grading(), serviceManager.ImportExport(), logger),
	}
}

// SetupRoutes registers the health check and the v1 API
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1", UserContext())
	{
		questions := v1.Group("/questions")
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.POST("/preview", hm.questionHandler.PreviewQuestion)
			questions.POST("/import", hm.questionHandler.ImportQuestions)
			questions.GET("/export", hm.questionHandler.ExportQuestions)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)

			// Blank registry and answer key
			questions.PUT("/:id/text", hm.questionHandler.UpdateText)
			questions.PUT("/:id/blanks", hm.questionHandler.UpdateBlanks)
			questions.PUT("/:id/correct-answers", hm.questionHandler.SetCorrectAnswers)
			questions.PUT("/:id/options", hm.questionHandler.SetOptions)

			// Lifecycle
			questions.GET("/:id/validate", hm.questionHandler.ValidateQuestion)
			questions.POST("/:id/publish", hm.questionHandler.PublishQuestion)
			questions.GET("/:id/student-view", hm.questionHandler.GetStudentView)
		}

		grading := v1.Group("/grading")
		{
			grading.POST("/questions/:id/check", hm.gradingHandler.CheckAnswer)
			grading.POST("/questions/:id/answers", hm.gradingHandler.SubmitAnswer)
			grading.GET("/questions/:id/answers", hm.gradingHandler.ListAnswers)
			grading.POST("/questions/:id/regrade", hm.gradingHandler.RegradeQuestion)
			grading.GET("/questions/:id/export", hm.gradingHandler.ExportAnswers)
			grading.GET("/answers/:answer_id", hm.gradingHandler.GetAnswerReview)
		}
	}
}

// NewRouter builds a gin engine with the shared middleware and all routes
func NewRouter(serviceManager services.ServiceManager, logger utils.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), utils.RequestID(), utils.LoggerMiddleware(logger))
	NewHandlerManager(serviceManager, logger).SetupRoutes(router)
	return router
}
