package handler

import (
	"context"
	"io"
	"strings"

	"flashzen/internal/domain"
	"flashzen/internal/dto"
	"flashzen/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// AssistService is the set of optional input helpers.
type AssistService interface {
	ExtractPDF(ctx context.Context, data []byte) (domain.PDFExtraction, error)
	ExtractPDFDataURI(ctx context.Context, dataURI string) (domain.PDFExtraction, error)
	Transcribe(ctx context.Context, audioDataURI string) (string, error)
	Synthesize(ctx context.Context, text string) (string, error)
	Search(ctx context.Context, query string) (string, error)
}

// AssistHandler handles PDF, speech and search requests
type AssistHandler struct {
	service     AssistService
	validator   *validation.Validator
	maxPDFBytes int64
}

func NewAssistHandler(service AssistService, maxPDFBytes int64) *AssistHandler {
	return &AssistHandler{service: service, validator: validation.NewValidator(), maxPDFBytes: maxPDFBytes}
}

// ExtractPDF godoc
// @Summary Extract text from a PDF
// @Description Accepts a multipart "file" upload or a JSON body with a base64 data URI.
// @Description Extraction failures are reported with success=false.
// @Tags assist
// @Accept mpfd,json
// @Produce json
// @Param file formData file false "PDF file"
// @Success 200 {object} dto.PDFExtractResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /pdf/extract [post]
func (h *AssistHandler) ExtractPDF(c *fiber.Ctx) error {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		var req dto.PDFDataURIRequest
		if err := c.BodyParser(&req); err != nil {
			return domain.NewInvalidInputError("Invalid request body.")
		}
		if req.DataURI == "" {
			return domain.ValidationErrors{domain.NewMissingFieldError("dataUri")}
		}
		res, err := h.service.ExtractPDFDataURI(c.UserContext(), req.DataURI)
		if err != nil {
			return err
		}
		return c.JSON(dto.PDFExtractResponse{PDFExtraction: res})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return domain.ValidationErrors{domain.NewMissingFieldError("file")}
	}
	if errs := h.validator.ValidatePDFUpload(fh.Header.Get(fiber.HeaderContentType), fh.Size, h.maxPDFBytes); len(errs) > 0 {
		return errs
	}
	f, err := fh.Open()
	if err != nil {
		return domain.NewInternalError("Failed to read uploaded file.", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return domain.NewInternalError("Failed to read uploaded file.", err)
	}

	res, err := h.service.ExtractPDF(c.UserContext(), data)
	if err != nil {
		return err
	}
	return c.JSON(dto.PDFExtractResponse{FileName: fh.Filename, PDFExtraction: res})
}

// Transcribe godoc
// @Summary Transcribe speech
// @Tags assist
// @Accept json
// @Produce json
// @Param request body dto.TranscribeRequest true "Audio data URI"
// @Success 200 {object} dto.TranscribeResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /speech/transcribe [post]
func (h *AssistHandler) Transcribe(c *fiber.Ctx) error {
	var req dto.TranscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body.")
	}
	text, err := h.service.Transcribe(c.UserContext(), req.AudioDataURI)
	if err != nil {
		return err
	}
	return c.JSON(dto.TranscribeResponse{Transcription: text})
}

// Synthesize godoc
// @Summary Read text aloud
// @Tags assist
// @Accept json
// @Produce json
// @Param request body dto.SynthesizeRequest true "Text to speak"
// @Success 200 {object} dto.SynthesizeResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /speech/synthesize [post]
func (h *AssistHandler) Synthesize(c *fiber.Ctx) error {
	var req dto.SynthesizeRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body.")
	}
	audio, err := h.service.Synthesize(c.UserContext(), req.Text)
	if err != nil {
		return err
	}
	return c.JSON(dto.SynthesizeResponse{AudioDataURI: audio})
}

// Search godoc
// @Summary Fetch web search context
// @Tags assist
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {object} dto.SearchResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /search [get]
func (h *AssistHandler) Search(c *fiber.Ctx) error {
	q := c.Query("q")
	text, err := h.service.Search(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(dto.SearchResponse{Query: q, Context: text})
}
