package handler

import (
	"context"
	"io"
	"strings"

	"flashzen/internal/domain"
	"flashzen/internal/dto"
	"flashzen/internal/logger"
	"flashzen/internal/quiz"
	"flashzen/internal/service"
	"flashzen/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StudyService is the session workflow the HTTP surface drives.
type StudyService interface {
	Session() service.SessionView
	Generate(ctx context.Context, in service.GenerateInput) (*service.ReplaceResult, error)
	Import(data []byte) (*service.ReplaceResult, error)
	Export() ([]byte, error)
	Confirm(id string) (service.SessionView, error)
	Cancel(id string) error
	Clear() service.SessionView
	Expand(ctx context.Context, kind service.ExpansionKind, count int, opts service.ExpandOptions) (*service.ExpansionResult, error)
	QuizState() quiz.State
	StartQuiz(count int) (quiz.State, error)
	AnswerQuiz(option string) (quiz.State, error)
	NextQuestion() (quiz.State, error)
	RestartQuiz() quiz.State
}

// StudyHandler handles session, generation and expansion requests
type StudyHandler struct {
	service StudyService
}

// NewStudyHandler creates a new StudyHandler instance
func NewStudyHandler(service StudyService) *StudyHandler {
	return &StudyHandler{service: service}
}

// GetSession godoc
// @Summary Get the study session
// @Description Returns the flashcards, quiz questions, pending confirmation and current view
// @Tags session
// @Produce json
// @Success 200 {object} service.SessionView
// @Router /session [get]
func (h *StudyHandler) GetSession(c *fiber.Ctx) error {
	return c.JSON(h.service.Session())
}

// ClearSession godoc
// @Summary Clear the study session
// @Description Removes all flashcards and quiz questions and drops any pending confirmation
// @Tags session
// @Produce json
// @Success 200 {object} service.SessionView
// @Router /session [delete]
func (h *StudyHandler) ClearSession(c *fiber.Ctx) error {
	return c.JSON(h.service.Clear())
}

// Generate godoc
// @Summary Generate a study set
// @Description Generates flashcards and optional quiz questions from a topic or PDF text.
// @Description An empty session is replaced immediately; otherwise a confirmation is returned.
// @Tags generate
// @Accept json
// @Produce json
// @Param request body dto.GenerateRequest true "Generation request"
// @Success 200 {object} service.ReplaceResult
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Failure 502 {object} middleware.ErrorResponse
// @Router /generate [post]
func (h *StudyHandler) Generate(c *fiber.Ctx) error {
	var req dto.GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body.")
	}

	res, err := h.service.Generate(c.UserContext(), service.GenerateInput{
		Prompt:           req.Prompt,
		PDFText:          req.PDFText,
		PDFName:          req.PDFName,
		NumFlashcards:    req.NumFlashcards,
		NumQuizQuestions: req.NumQuizQuestions,
		Difficulty:       req.Difficulty,
		UseWebSearch:     req.UseWebSearch,
	})
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// Import godoc
// @Summary Import a study set
// @Description Accepts an exported JSON file as a multipart "file" field or as the raw request body
// @Tags session
// @Accept json,mpfd
// @Produce json
// @Param file formData file false "Exported study set"
// @Success 200 {object} service.ReplaceResult
// @Failure 400 {object} middleware.ErrorResponse
// @Router /import [post]
func (h *StudyHandler) Import(c *fiber.Ctx) error {
	data, err := importPayload(c)
	if err != nil {
		return err
	}
	res, err := h.service.Import(data)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func importPayload(c *fiber.Ctx) ([]byte, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return c.Body(), nil
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, domain.ValidationErrors{domain.NewMissingFieldError("file")}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, domain.NewInternalError("Failed to read uploaded file.", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.NewInternalError("Failed to read uploaded file.", err)
	}
	return data, nil
}

// Export godoc
// @Summary Export the study set
// @Description Downloads the session as flashzen_export.json
// @Tags session
// @Produce json
// @Success 200 {file} file
// @Failure 400 {object} middleware.ErrorResponse
// @Router /export [get]
func (h *StudyHandler) Export(c *fiber.Ctx) error {
	data, err := h.service.Export()
	if err != nil {
		return err
	}
	c.Attachment(validation.ExportFileName)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(data)
}

// ConfirmReplace godoc
// @Summary Confirm a pending replace
// @Tags session
// @Produce json
// @Param id path string true "Confirmation ID"
// @Success 200 {object} service.SessionView
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /confirmations/{id} [post]
func (h *StudyHandler) ConfirmReplace(c *fiber.Ctx) error {
	id := c.Locals("validated_confirmation_id").(string)
	view, err := h.service.Confirm(id)
	if err != nil {
		return err
	}
	logger.Get().Info("Replace confirmed", zap.String("confirmation_id", id))
	return c.JSON(view)
}

// CancelReplace godoc
// @Summary Cancel a pending replace
// @Tags session
// @Produce json
// @Param id path string true "Confirmation ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /confirmations/{id} [delete]
func (h *StudyHandler) CancelReplace(c *fiber.Ctx) error {
	id := c.Locals("validated_confirmation_id").(string)
	if err := h.service.Cancel(id); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Replace cancelled."})
}

// Expand godoc
// @Summary Expand the study set
// @Description Generates more flashcards or quiz questions that avoid the existing ones and appends them
// @Tags generate
// @Accept json
// @Produce json
// @Param request body dto.ExpandRequest true "Expansion request"
// @Success 200 {object} service.ExpansionResult
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 422 {object} middleware.ErrorResponse
// @Router /expand [post]
func (h *StudyHandler) Expand(c *fiber.Ctx) error {
	var req dto.ExpandRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body.")
	}

	var difficulty domain.Difficulty
	if req.Difficulty != "" {
		d, err := domain.ParseDifficulty(req.Difficulty)
		if err != nil {
			return domain.ValidationErrors{domain.NewInvalidFormatError("difficulty", req.Difficulty)}
		}
		difficulty = d
	}

	res, err := h.service.Expand(c.UserContext(), service.ExpansionKind(req.Kind), req.Count, service.ExpandOptions{
		Topic:      strings.TrimSpace(req.Topic),
		Difficulty: difficulty,
	})
	if err != nil {
		return err
	}
	return c.JSON(res)
}
