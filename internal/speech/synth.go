package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Synthesizer turns a normalized request into playable audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
	Name() string
}

const synthTimeout = 10 * time.Second

// ErrSynthesis reports a failed synthesis call.
type ErrSynthesis struct {
	Engine     string
	StatusCode int
	Err        error
}

func (e *ErrSynthesis) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Engine, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Engine, e.Err)
}

func (e *ErrSynthesis) Unwrap() error { return e.Err }

// GoogleCloud calls the Cloud Text-to-Speech REST API.
type GoogleCloud struct {
	APIKey   string
	Endpoint string // default https://texttospeech.googleapis.com/v1
	Client   *http.Client

	// PreferredVoices are substrings matched against voice names, e.g.
	// "Neural2" or "Wavenet".
	PreferredVoices []string

	mu     sync.Mutex
	voices []Voice
}

const googleCloudEndpoint = "https://texttospeech.googleapis.com/v1"

// NewGoogleCloud returns a GoogleCloud synthesizer for apiKey.
func NewGoogleCloud(apiKey string, preferred ...string) *GoogleCloud {
	return &GoogleCloud{
		APIKey:          apiKey,
		Endpoint:        googleCloudEndpoint,
		Client:          &http.Client{Timeout: synthTimeout},
		PreferredVoices: preferred,
	}
}

func (g *GoogleCloud) Name() string { return "google" }

func (g *GoogleCloud) endpoint() string {
	if g.Endpoint == "" {
		return googleCloudEndpoint
	}
	return strings.TrimRight(g.Endpoint, "/")
}

func (g *GoogleCloud) client() *http.Client {
	if g.Client == nil {
		return &http.Client{Timeout: synthTimeout}
	}
	return g.Client
}

// Voices lists the English voices the API offers. The list is fetched once.
func (g *GoogleCloud) Voices(ctx context.Context) ([]Voice, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.voices != nil {
		return g.voices, nil
	}

	u := g.endpoint() + "/voices?languageCode=en&key=" + url.QueryEscape(g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create voices request: %w", err)
	}
	body, err := g.do(req)
	if err != nil {
		return nil, err
	}

	var result struct {
		Voices []struct {
			Name          string   `json:"name"`
			LanguageCodes []string `json:"languageCodes"`
		} `json:"voices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ErrSynthesis{Engine: g.Name(), Err: fmt.Errorf("parse voices: %w", err)}
	}

	voices := make([]Voice, 0, len(result.Voices))
	for _, v := range result.Voices {
		for _, code := range v.LanguageCodes {
			voices = append(voices, Voice{Name: v.Name, Tag: code})
		}
	}
	g.voices = voices
	return voices, nil
}

func (g *GoogleCloud) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	voice := map[string]any{
		"languageCode": req.LanguageTag,
		"ssmlGender":   "FEMALE",
	}
	// Without a voice list the API picks a default voice for the tag.
	if voices, err := g.Voices(ctx); err == nil {
		if v, ok := SelectVoice(voices, req.LanguageTag, g.PreferredVoices...); ok {
			voice = map[string]any{"languageCode": v.Tag, "name": v.Name}
		}
	}

	reqBody := map[string]any{
		"input": map[string]string{"text": req.Text},
		"voice": voice,
		"audioConfig": map[string]any{
			"audioEncoding": "MP3",
			"speakingRate":  req.Rate,
		},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	u := g.endpoint() + "/text:synthesize?key=" + url.QueryEscape(g.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create synthesize request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	body, err := g.do(httpReq)
	if err != nil {
		return nil, err
	}

	var result struct {
		AudioContent string `json:"audioContent"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ErrSynthesis{Engine: g.Name(), Err: fmt.Errorf("parse response: %w", err)}
	}
	audio, err := base64.StdEncoding.DecodeString(result.AudioContent)
	if err != nil {
		return nil, &ErrSynthesis{Engine: g.Name(), Err: fmt.Errorf("decode audio: %w", err)}
	}
	return audio, nil
}

func (g *GoogleCloud) do(req *http.Request) ([]byte, error) {
	resp, err := g.client().Do(req)
	if err != nil {
		return nil, &ErrSynthesis{Engine: g.Name(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrSynthesis{Engine: g.Name(), Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ErrSynthesis{Engine: g.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", strings.TrimSpace(string(body)))}
	}
	return body, nil
}

// GoogleTranslate uses the keyless translate_tts endpoint.
type GoogleTranslate struct {
	Endpoint string // default https://translate.google.com/translate_tts
	Client   *http.Client
}

const translateEndpoint = "https://translate.google.com/translate_tts"

// NewGoogleTranslate returns a keyless GoogleTranslate synthesizer.
func NewGoogleTranslate() *GoogleTranslate {
	return &GoogleTranslate{
		Endpoint: translateEndpoint,
		Client:   &http.Client{Timeout: synthTimeout},
	}
}

func (g *GoogleTranslate) Name() string { return "translate" }

func (g *GoogleTranslate) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = translateEndpoint
	}

	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", req.Text)
	params.Set("tl", strings.ToLower(req.LanguageTag))
	params.Set("client", "tw-ob")
	params.Set("textlen", strconv.Itoa(len(req.Text)))
	params.Set("ttsspeed", strconv.FormatFloat(req.Rate, 'f', 2, 64))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// The endpoint rejects requests without a browser user agent.
	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	client := g.Client
	if client == nil {
		client = &http.Client{Timeout: synthTimeout}
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &ErrSynthesis{Engine: g.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ErrSynthesis{Engine: g.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status")}
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrSynthesis{Engine: g.Name(), Err: fmt.Errorf("read audio: %w", err)}
	}
	return audio, nil
}

// Espeak runs a local espeak-ng (or espeak) binary and returns WAV audio.
type Espeak struct {
	Binary string
}

// baseWPM is espeak's default speaking rate in words per minute.
const baseWPM = 175

// FindEspeak locates espeak-ng or espeak on PATH.
func FindEspeak() (*Espeak, error) {
	for _, name := range []string{"espeak-ng", "espeak"} {
		if p, err := exec.LookPath(name); err == nil {
			return &Espeak{Binary: p}, nil
		}
	}
	return nil, &ErrSynthesis{Engine: "espeak", Err: exec.ErrNotFound}
}

func (e *Espeak) Name() string { return "espeak" }

// espeakVoice maps a tag to an espeak voice name.
func espeakVoice(tag string) string {
	if tag == TagGB {
		return "en-gb"
	}
	return "en-us"
}

func (e *Espeak) args(req Request) []string {
	wpm := int(baseWPM * req.Rate)
	return []string{"--stdout", "-v", espeakVoice(req.LanguageTag), "-s", strconv.Itoa(wpm), req.Text}
}

func (e *Espeak) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Binary, e.args(req)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, &ErrSynthesis{Engine: e.Name(), Err: err}
	}
	return stdout.Bytes(), nil
}
