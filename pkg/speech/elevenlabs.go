package speech

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"mirai/pkg/flight"
	"mirai/pkg/schema"
	"mirai/pkg/utils"
)

const (
	ElevenLabsBaseURL = "https://api.elevenlabs.io"

	// NarratorVoice is the voice used for narration lines.
	NarratorVoice = "pFZP5JQG7iQjIQuC4Bku"

	defaultModel        = "eleven_multilingual_v2"
	defaultOutputFormat = "mp3_44100_128"
	voicesPageSize      = 100
)

type ElevenLabs struct {
	apiKey   string
	baseURL  string
	model    string
	narrator string
	client   *http.Client
	catalog  *flight.Cache[string, []Voice]

	// shuffle reorders a catalog copy before selection so equally good voices are spread out.
	shuffle func([]Voice)
}

type ElevenLabsOptions struct {
	BaseURL       string
	Model         string
	NarratorVoice string
	CatalogTTL    time.Duration
	HTTPClient    *http.Client
}

func NewElevenLabs(apiKey string, opts ElevenLabsOptions) *ElevenLabs {
	e := &ElevenLabs{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(cmp.Or(opts.BaseURL, ElevenLabsBaseURL), "/"),
		model:    cmp.Or(opts.Model, defaultModel),
		narrator: cmp.Or(opts.NarratorVoice, NarratorVoice),
		client:   cmp.Or(opts.HTTPClient, &http.Client{Timeout: 5 * time.Minute}),
		shuffle:  shuffleVoices,
	}
	e.catalog = flight.NewCache(cmp.Or(opts.CatalogTTL, time.Hour), func(ctx context.Context, _ string) ([]Voice, error) {
		return e.listVoices(ctx)
	})
	return e
}

type speechRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

func (e *ElevenLabs) Speak(ctx context.Context, text, voiceID string) ([]byte, error) {
	voiceID = cmp.Or(voiceID, e.narrator)
	q := url.Values{"output_format": {defaultOutputFormat}}
	path := "/v1/text-to-speech/" + url.PathEscape(voiceID) + "?" + q.Encode()
	log.Debug("elevenlabs speech", "voice", voiceID, "text", utils.LimitStr(text, 40))
	return e.post(ctx, path, speechRequest{Text: text, ModelID: e.model})
}

type soundRequest struct {
	Text            string  `json:"text"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func (e *ElevenLabs) SoundEffect(ctx context.Context, description string, seconds float64) ([]byte, error) {
	log.Debug("elevenlabs sound effect", "seconds", seconds, "description", utils.LimitStr(description, 40))
	return e.post(ctx, "/v1/sound-generation", soundRequest{Text: description, DurationSeconds: seconds})
}

// Voice returns the narrator voice for a nil subject and otherwise searches the catalog.
func (e *ElevenLabs) Voice(ctx context.Context, language string, used []string, subject *schema.Subject) (string, error) {
	if subject == nil {
		return e.narrator, nil
	}
	voices, err := e.catalog.Get(ctx, "voices")
	if err != nil {
		return "", fmt.Errorf("list voices: %w", err)
	}
	candidates := append([]Voice(nil), voices...)
	if e.shuffle != nil {
		e.shuffle(candidates)
	}
	id, err := pickVoice(candidates, language, append(slices.Clip(used), e.narrator), *subject)
	if err != nil {
		return "", fmt.Errorf("subject #%d (%s, %s): %w", subject.ID, subject.Gender, AgeBucket(subject.Age), err)
	}
	log.Info("voice selected", "subject", subject.ID, "name", subject.Name, "voice", id)
	return id, nil
}

type voicesPage struct {
	Voices        []Voice `json:"voices"`
	HasMore       bool    `json:"has_more"`
	NextPageToken string  `json:"next_page_token"`
}

func (e *ElevenLabs) listVoices(ctx context.Context) ([]Voice, error) {
	var all []Voice
	token := ""
	for {
		q := url.Values{"page_size": {fmt.Sprint(voicesPageSize)}}
		if token != "" {
			q.Set("next_page_token", token)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/v2/voices?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		body, err := e.do(req)
		if err != nil {
			return nil, err
		}
		var page voicesPage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode voices: %w", err)
		}
		all = append(all, page.Voices...)
		if !page.HasMore || page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}
	log.Debug("elevenlabs voices loaded", "count", len(all))
	return all, nil
}

func (e *ElevenLabs) post(ctx context.Context, path string, payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	return e.do(req)
}

func (e *ElevenLabs) do(req *http.Request) ([]byte, error) {
	req.Header.Set("xi-api-key", e.apiKey)
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("elevenlabs %s %s: %s: %s", req.Method, req.URL.Path, resp.Status, utils.LimitStr(strings.TrimSpace(string(body)), 200))
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("elevenlabs %s %s: empty response", req.Method, req.URL.Path)
	}
	return body, nil
}
