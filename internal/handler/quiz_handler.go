package handler

import (
	"flashzen/internal/domain"
	"flashzen/internal/dto"

	"github.com/gofiber/fiber/v2"
)

// GetQuiz godoc
// @Summary Get the quiz state
// @Tags quiz
// @Produce json
// @Success 200 {object} quiz.State
// @Router /quiz [get]
func (h *StudyHandler) GetQuiz(c *fiber.Ctx) error {
	return c.JSON(h.service.QuizState())
}

// StartQuiz godoc
// @Summary Start a quiz built from flashcards
// @Description Only available when the session has no AI quiz questions and at least two flashcards
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body dto.StartQuizRequest true "Question count"
// @Success 200 {object} quiz.State
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /quiz/start [post]
func (h *StudyHandler) StartQuiz(c *fiber.Ctx) error {
	var req dto.StartQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body.")
	}
	st, err := h.service.StartQuiz(req.Count)
	if err != nil {
		return err
	}
	return c.JSON(st)
}

// AnswerQuiz godoc
// @Summary Answer the current question
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body dto.AnswerQuizRequest true "Selected option"
// @Success 200 {object} quiz.State
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /quiz/answer [post]
func (h *StudyHandler) AnswerQuiz(c *fiber.Ctx) error {
	var req dto.AnswerQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body.")
	}
	if req.Option == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("option")}
	}
	st, err := h.service.AnswerQuiz(req.Option)
	if err != nil {
		return err
	}
	return c.JSON(st)
}

// NextQuestion godoc
// @Summary Advance to the next question
// @Tags quiz
// @Produce json
// @Success 200 {object} quiz.State
// @Failure 409 {object} middleware.ErrorResponse
// @Router /quiz/next [post]
func (h *StudyHandler) NextQuestion(c *fiber.Ctx) error {
	st, err := h.service.NextQuestion()
	if err != nil {
		return err
	}
	return c.JSON(st)
}

// RestartQuiz godoc
// @Summary Restart the quiz
// @Tags quiz
// @Produce json
// @Success 200 {object} quiz.State
// @Router /quiz/restart [post]
func (h *StudyHandler) RestartQuiz(c *fiber.Ctx) error {
	return c.JSON(h.service.RestartQuiz())
}
