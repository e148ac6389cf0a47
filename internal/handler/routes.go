package handler

import (
	"flashzen/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the API under /api.
func RegisterRoutes(app *fiber.App, study *StudyHandler, assist *AssistHandler, health *HealthHandler) {
	vm := middleware.NewValidationMiddleware()
	api := app.Group("/api")

	api.Get("/health", health.Health)

	api.Get("/session", study.GetSession)
	api.Delete("/session", study.ClearSession)
	api.Post("/generate", study.Generate)
	api.Post("/import", study.Import)
	api.Get("/export", study.Export)
	api.Post("/confirmations/:id", vm.ValidateConfirmationID(), study.ConfirmReplace)
	api.Delete("/confirmations/:id", vm.ValidateConfirmationID(), study.CancelReplace)
	api.Post("/expand", study.Expand)

	api.Get("/quiz", study.GetQuiz)
	api.Post("/quiz/start", study.StartQuiz)
	api.Post("/quiz/answer", study.AnswerQuiz)
	api.Post("/quiz/next", study.NextQuestion)
	api.Post("/quiz/restart", study.RestartQuiz)

	api.Post("/pdf/extract", assist.ExtractPDF)
	api.Post("/speech/transcribe", assist.Transcribe)
	api.Post("/speech/synthesize", assist.Synthesize)
	api.Get("/search", assist.Search)
}
