package dto

import (
	"flashzen/internal/domain"
)

// GenerateRequest is the body of POST /api/generate.
// @Description Generation request. A prompt or processed PDF text is required.
type GenerateRequest struct {
	Prompt           string `json:"prompt" example:"Photosynthesis"`
	PDFText          string `json:"pdfText,omitempty"`
	PDFName          string `json:"pdfName,omitempty" example:"biology_notes.pdf"`
	NumFlashcards    *int   `json:"numFlashcards,omitempty" example:"10"`
	NumQuizQuestions *int   `json:"numQuizQuestions,omitempty" example:"5"`
	Difficulty       string `json:"difficulty,omitempty" example:"Medium"`
	UseWebSearch     bool   `json:"useWebSearch,omitempty"`
}

// ExpandRequest is the body of POST /api/expand.
type ExpandRequest struct {
	Kind       string `json:"kind" example:"flashcards"`
	Count      int    `json:"count" example:"5"`
	Topic      string `json:"topic,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// StartQuizRequest is the body of POST /api/quiz/start.
type StartQuizRequest struct {
	Count int `json:"count" example:"5"`
}

// AnswerQuizRequest is the body of POST /api/quiz/answer.
type AnswerQuizRequest struct {
	Option string `json:"option"`
}

// PDFDataURIRequest is the JSON form of POST /api/pdf/extract.
type PDFDataURIRequest struct {
	DataURI string `json:"dataUri"`
}

// PDFExtractResponse wraps an extraction result with the source file name.
type PDFExtractResponse struct {
	FileName string `json:"fileName,omitempty"`
	domain.PDFExtraction
}

type TranscribeRequest struct {
	AudioDataURI string `json:"audioDataUri"`
}

type TranscribeResponse struct {
	Transcription string `json:"transcription"`
}

type SynthesizeRequest struct {
	Text string `json:"text"`
}

type SynthesizeResponse struct {
	AudioDataURI string `json:"audioDataUri"`
}

type SearchResponse struct {
	Query   string `json:"query"`
	Context string `json:"context"`
}

// HealthResponse reports liveness and the state of optional backends.
type HealthResponse struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
