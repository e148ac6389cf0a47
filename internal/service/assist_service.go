package service

import (
	"context"
	"strings"

	"flashzen/internal/domain"

	"go.uber.org/zap"
)

// AssistService fronts the optional input helpers: PDF extraction, speech
// and web search. A nil collaborator disables its feature.
type AssistService struct {
	pdf         domain.PDFExtractor
	transcriber domain.Transcriber
	speaker     domain.Speaker
	searcher    domain.WebSearcher
	logger      *zap.Logger
}

func NewAssistService(pdf domain.PDFExtractor, transcriber domain.Transcriber, speaker domain.Speaker, searcher domain.WebSearcher, logger *zap.Logger) *AssistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistService{pdf: pdf, transcriber: transcriber, speaker: speaker, searcher: searcher, logger: logger}
}

func featureDisabled(name string) *domain.DomainError {
	return domain.NewError(domain.CodeNotFound, name+" is not enabled on this server.", nil)
}

// ExtractPDF extracts raw uploaded bytes. Extraction failures are reported
// in the result, not as an error.
func (s *AssistService) ExtractPDF(ctx context.Context, data []byte) (domain.PDFExtraction, error) {
	if s.pdf == nil {
		return domain.PDFExtraction{}, featureDisabled("PDF extraction")
	}
	res := s.pdf.ExtractBytes(ctx, data)
	s.logExtraction(res)
	return res, nil
}

// ExtractPDFDataURI extracts a "data:application/pdf;base64," URI.
func (s *AssistService) ExtractPDFDataURI(ctx context.Context, dataURI string) (domain.PDFExtraction, error) {
	if s.pdf == nil {
		return domain.PDFExtraction{}, featureDisabled("PDF extraction")
	}
	res := s.pdf.ExtractDataURI(ctx, dataURI)
	s.logExtraction(res)
	return res, nil
}

func (s *AssistService) logExtraction(res domain.PDFExtraction) {
	if !res.Success {
		s.logger.Info("PDF extraction unsuccessful", zap.String("reason", res.Error))
		return
	}
	s.logger.Info("PDF extracted", zap.Int("chars", len(res.ExtractedText)))
}

func (s *AssistService) Transcribe(ctx context.Context, audioDataURI string) (string, error) {
	if s.transcriber == nil {
		return "", featureDisabled("Speech-to-text")
	}
	if strings.TrimSpace(audioDataURI) == "" {
		return "", domain.ValidationErrors{domain.NewMissingFieldError("audioDataUri")}
	}
	return s.transcriber.Transcribe(ctx, audioDataURI)
}

func (s *AssistService) Synthesize(ctx context.Context, text string) (string, error) {
	if s.speaker == nil {
		return "", featureDisabled("Text-to-speech")
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.ValidationErrors{domain.NewMissingFieldError("text")}
	}
	return s.speaker.Synthesize(ctx, text)
}

// Search returns the web context for query; "" means nothing was found.
func (s *AssistService) Search(ctx context.Context, query string) (string, error) {
	if s.searcher == nil {
		return "", featureDisabled("Web search")
	}
	if strings.TrimSpace(query) == "" {
		return "", domain.ValidationErrors{domain.NewMissingFieldError("q")}
	}
	return s.searcher.Search(ctx, query)
}
