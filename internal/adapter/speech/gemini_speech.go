package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"flashzen/internal/domain"
	"flashzen/internal/util"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const transcribePrompt = "Transcribe this audio recording accurately and concisely."

var ErrNoAudio = errors.New("audio generation failed or returned no audio data")

// contentGenerator is satisfied by *genai.GenerativeModel.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiSpeech implements transcription and text-to-speech on Gemini models.
type GeminiSpeech struct {
	client      *genai.Client
	transcriber contentGenerator
	synthesizer contentGenerator
	timeout     time.Duration
	logger      *zap.Logger
}

var (
	_ domain.Transcriber = (*GeminiSpeech)(nil)
	_ domain.Speaker     = (*GeminiSpeech)(nil)
)

func NewGeminiSpeech(ctx context.Context, apiKey, model, ttsModel string, timeout time.Duration, logger *zap.Logger) (*GeminiSpeech, error) {
	if apiKey == "" {
		return nil, errors.New("API key cannot be empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	s := newGeminiSpeech(client.GenerativeModel(model), client.GenerativeModel(ttsModel), timeout, logger)
	s.client = client
	return s, nil
}

func newGeminiSpeech(transcriber, synthesizer contentGenerator, timeout time.Duration, logger *zap.Logger) *GeminiSpeech {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiSpeech{transcriber: transcriber, synthesizer: synthesizer, timeout: timeout, logger: logger}
}

func (s *GeminiSpeech) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Transcribe returns "" when the model produced no text.
func (s *GeminiSpeech) Transcribe(ctx context.Context, audioDataURI string) (string, error) {
	audio, err := util.ParseDataURI(audioDataURI)
	if err != nil {
		return "", domain.NewInvalidInputError("invalid audio data URI: " + err.Error())
	}
	if !strings.HasPrefix(audio.MIMEType, "audio/") {
		return "", domain.NewInvalidInputError("unsupported audio type " + audio.MIMEType)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.transcriber.GenerateContent(ctx,
		genai.Blob{MIMEType: audio.MIMEType, Data: audio.Data},
		genai.Text(transcribePrompt))
	if err != nil {
		s.logger.Error("Transcription failed", zap.Error(err))
		return "", domain.NewExternalServiceError("speech-to-text", err)
	}

	text := strings.TrimSpace(collectText(resp))
	if text == "" {
		s.logger.Warn("Transcription returned no text")
	}
	return text, nil
}

// Synthesize returns the first audio part of the response as a data URI.
func (s *GeminiSpeech) Synthesize(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.NewInvalidInputError("text to speak cannot be empty")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.synthesizer.GenerateContent(ctx, genai.Text("Please read the following text aloud: "+text))
	if err != nil {
		s.logger.Error("Speech synthesis failed", zap.Error(err))
		return "", domain.NewExternalServiceError("text-to-speech", err)
	}

	blob, ok := firstAudio(resp)
	if !ok {
		return "", domain.NewExternalServiceError("text-to-speech", ErrNoAudio)
	}
	return util.EncodeDataURI(blob.MIMEType, blob.Data), nil
}

func (s *GeminiSpeech) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return b.String()
}

func firstAudio(resp *genai.GenerateContentResponse) (genai.Blob, bool) {
	if resp == nil {
		return genai.Blob{}, false
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if blob, ok := part.(genai.Blob); ok && len(blob.Data) > 0 && strings.HasPrefix(blob.MIMEType, "audio/") {
				return blob, true
			}
		}
	}
	return genai.Blob{}, false
}
