package cloud

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"

	"beast/pkg/audioconv"
)

// Recognizer sends recordings to the OpenAI transcription endpoint.
type Recognizer struct {
	client   openai.Client
	model    openai.AudioModel
	language string
}

func New(client openai.Client, language string) *Recognizer {
	return &Recognizer{
		client:   client,
		model:    openai.AudioModelWhisper1,
		language: language,
	}
}

// Transcribe uploads pcm16k as a 16-bit WAV file.
func (r *Recognizer) Transcribe(ctx context.Context, pcm16k []float32) (string, error) {
	if len(pcm16k) == 0 {
		return "", errors.New("no audio samples provided")
	}

	wav, err := audioconv.EncodeWAV(pcm16k, 16000)
	if err != nil {
		return "", err
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(wav), "speech.wav", "audio/wav"),
		Model: r.model,
	}
	if r.language != "" && r.language != "auto" {
		params.Language = openai.String(r.language)
	}

	res, err := r.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}

	return strings.TrimSpace(res.Text), nil
}
