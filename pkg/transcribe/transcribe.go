// Package transcribe recovers word timings from synthesized speech.
package transcribe

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"mirai/pkg/language"
)

// Word is one recognized word with offsets in seconds from the start of the clip.
type Word struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, lang string) ([]Word, error)
}

type Whisper struct {
	client *openai.Client
	model  string
}

func NewWhisper(apiKey string, model string) *Whisper {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Whisper{
		client: &client,
		model:  cmp.Or(model, string(openai.AudioModelWhisper1)),
	}
}

func (w *Whisper) Transcribe(ctx context.Context, audio []byte, lang string) ([]Word, error) {
	params := openai.AudioTranscriptionNewParams{
		File:                   openai.File(bytes.NewReader(audio), "line.mp3", "audio/mpeg"),
		Model:                  openai.AudioModel(w.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word"},
	}
	if lang != "" {
		params.Language = openai.String(language.Base(lang))
	}
	resp, err := w.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	words, err := parseVerbose(resp.RawJSON())
	if err != nil {
		return nil, err
	}
	log.Debug("transcribed", "words", len(words), "text", resp.Text)
	return words, nil
}

type verboseTranscription struct {
	Text  string `json:"text"`
	Words []Word `json:"words"`
}

func parseVerbose(raw string) ([]Word, error) {
	var v verboseTranscription
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decode transcription: %w", err)
	}
	return v.Words, nil
}
