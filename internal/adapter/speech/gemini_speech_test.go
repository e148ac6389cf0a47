package speech

import (
	"context"
	"errors"
	"testing"

	"flashzen/internal/domain"
	"flashzen/internal/util"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	resp  *genai.GenerateContentResponse
	err   error
	parts []genai.Part
}

func (f *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	f.parts = parts
	return f.resp, f.err
}

func respond(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

var wavURI = util.EncodeDataURI("audio/wav", []byte("RIFF...."))

func TestTranscribe(t *testing.T) {
	model := &fakeModel{resp: respond(genai.Text("  what is osmosis  "))}
	s := newGeminiSpeech(model, nil, 0, nil)

	text, err := s.Transcribe(context.Background(), wavURI)
	require.NoError(t, err)
	assert.Equal(t, "what is osmosis", text)

	require.Len(t, model.parts, 2)
	blob, ok := model.parts[0].(genai.Blob)
	require.True(t, ok)
	assert.Equal(t, "audio/wav", blob.MIMEType)
	assert.Equal(t, genai.Text(transcribePrompt), model.parts[1])
}

func TestTranscribe_EmptyTranscriptIsNotAnError(t *testing.T) {
	s := newGeminiSpeech(&fakeModel{resp: respond()}, nil, 0, nil)
	text, err := s.Transcribe(context.Background(), wavURI)
	assert.NoError(t, err)
	assert.Empty(t, text)
}

func TestTranscribe_Errors(t *testing.T) {
	s := newGeminiSpeech(&fakeModel{err: errors.New("quota")}, nil, 0, nil)

	_, err := s.Transcribe(context.Background(), "not a uri")
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)

	_, err = s.Transcribe(context.Background(), util.EncodeDataURI("image/png", []byte{1}))
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)

	_, err = s.Transcribe(context.Background(), wavURI)
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeExternalServiceError, domainErr.Code)
}

func TestSynthesize(t *testing.T) {
	model := &fakeModel{resp: respond(genai.Text("ok"), genai.Blob{MIMEType: "audio/wav", Data: []byte("pcm")})}
	s := newGeminiSpeech(nil, model, 0, nil)

	uri, err := s.Synthesize(context.Background(), "Mitochondria")
	require.NoError(t, err)
	assert.Equal(t, util.EncodeDataURI("audio/wav", []byte("pcm")), uri)
	assert.Equal(t, genai.Text("Please read the following text aloud: Mitochondria"), model.parts[0])
}

func TestSynthesize_NoAudio(t *testing.T) {
	s := newGeminiSpeech(nil, &fakeModel{resp: respond(genai.Text("sorry"))}, 0, nil)
	_, err := s.Synthesize(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNoAudio)

	_, err = s.Synthesize(context.Background(), "  ")
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
}
