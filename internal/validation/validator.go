package validation

import (
	"regexp"
	"strings"

	"flashzen/internal/domain"
)

const (
	// MaxItemsPerRequest bounds how many items one generation call may ask for.
	MaxItemsPerRequest = 50
	maxPromptLength    = 4000
)

var ulidPattern = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateGenerateRequest checks a submit: a prompt or extracted PDF text is
// required and counts must fall within bounds.
func (v *Validator) ValidateGenerateRequest(prompt string, hasPDFText bool, numFlashcards, numQuizQuestions int) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(prompt) == "" && !hasPDFText {
		errors = append(errors, domain.ValidationError{Field: "prompt", Message: "a topic or a processed PDF is required"})
	} else if len(prompt) > maxPromptLength {
		errors = append(errors, domain.NewOutOfRangeError("prompt", len(prompt), 0, maxPromptLength))
	}

	if numFlashcards < 1 || numFlashcards > MaxItemsPerRequest {
		errors = append(errors, domain.NewOutOfRangeError("numFlashcards", numFlashcards, 1, MaxItemsPerRequest))
	}
	if numQuizQuestions < 0 || numQuizQuestions > MaxItemsPerRequest {
		errors = append(errors, domain.NewOutOfRangeError("numQuizQuestions", numQuizQuestions, 0, MaxItemsPerRequest))
	}

	return errors
}

// ValidateExpandRequest checks the kind and count of an expansion.
func (v *Validator) ValidateExpandRequest(kind string, count int) domain.ValidationErrors {
	var errors domain.ValidationErrors

	switch kind {
	case "flashcards", "quiz":
	case "":
		errors = append(errors, domain.NewMissingFieldError("kind"))
	default:
		errors = append(errors, domain.NewInvalidFormatError("kind", kind))
	}

	if count <= 0 || count > MaxItemsPerRequest {
		errors = append(errors, domain.NewOutOfRangeError("count", count, 1, MaxItemsPerRequest))
	}

	return errors
}

// ValidateConfirmationID checks that id looks like a confirmation token.
func (v *Validator) ValidateConfirmationID(id string) domain.ValidationErrors {
	if strings.TrimSpace(id) == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("id")}
	}
	if !isValidULID(id) {
		return domain.ValidationErrors{domain.NewInvalidFormatError("id", id)}
	}
	return nil
}

// ValidatePDFUpload checks an uploaded file before extraction.
func (v *Validator) ValidatePDFUpload(contentType string, size int64, maxBytes int64) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if contentType != "" && !strings.HasPrefix(contentType, "application/pdf") {
		errors = append(errors, domain.NewInvalidFormatError("file", contentType))
	}
	if size <= 0 {
		errors = append(errors, domain.ValidationError{Field: "file", Message: "file is empty"})
	} else if size > maxBytes {
		errors = append(errors, domain.NewOutOfRangeError("file", int(size), 1, int(maxBytes)))
	}

	return errors
}

// isValidULID checks if the string is a valid ULID format
func isValidULID(s string) bool {
	return ulidPattern.MatchString(s)
}
