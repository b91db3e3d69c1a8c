package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"call-auditor-go/internal/config"
	"call-auditor-go/internal/logger"
	"call-auditor-go/internal/types"
)

// Transcriber turns recorded call audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (types.Transcript, error)
}

// verboseResponse is the subset of the verbose_json transcription reply we read.
type verboseResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// WhisperClient calls an OpenAI compatible /audio/transcriptions endpoint.
type WhisperClient struct {
	baseURL        string
	apiKey         string
	model          string
	maxElapsedTime time.Duration
	httpClient     *http.Client
	log            *logger.Logger
}

func NewWhisperClient(cfg config.TranscriptionConfig, log *logger.Logger) *WhisperClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperClient{
		baseURL:        strings.TrimRight(cfg.URL, "/"),
		apiKey:         cfg.APIKey,
		model:          model,
		maxElapsedTime: cfg.MaxElapsedTime,
		httpClient:     &http.Client{Timeout: timeout},
		log:            log.Component("transcription"),
	}
}

func (c *WhisperClient) Transcribe(ctx context.Context, filename string, audio io.Reader) (types.Transcript, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("reading audio: %w", err)
	}
	if len(data) == 0 {
		return types.Transcript{}, errors.New("audio file is empty")
	}

	var resp verboseResponse
	start := time.Now()
	if err := c.doJSON(ctx, func() (*http.Request, error) { return c.newRequest(ctx, filename, data) }, &resp); err != nil {
		return types.Transcript{}, fmt.Errorf("transcription failed: %w", err)
	}
	c.log.WithFields(logrus.Fields{
		"file":     filename,
		"language": resp.Language,
		"duration": resp.Duration,
		"took_ms":  time.Since(start).Milliseconds(),
	}).Info("audio transcribed")

	return types.Transcript{
		Text:            strings.TrimSpace(resp.Text),
		Language:        resp.Language,
		DurationSeconds: resp.Duration,
	}, nil
}

// newRequest builds a fresh multipart body; requests are rebuilt on every retry.
func (c *WhisperClient) newRequest(ctx context.Context, filename string, data []byte) (*http.Request, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	_ = w.WriteField("model", c.model)
	_ = w.WriteField("response_format", "verbose_json")
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *WhisperClient) doJSON(ctx context.Context, build func() (*http.Request, error), target interface{}) error {
	bo := backoff.NewExponentialBackOff()
	if c.maxElapsedTime > 0 {
		bo.MaxElapsedTime = c.maxElapsedTime
	}
	attempt := 0
	op := func() error {
		attempt++
		req, err := build()
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.log.WithError(err).WithField("attempt", attempt).Warn("transcription request failed")
			return err
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			return fmt.Errorf("server error: status=%d body=%s", resp.StatusCode, string(body))
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("request rejected: status=%d body=%s", resp.StatusCode, string(body)))
		}
		if len(body) == 0 {
			return fmt.Errorf("empty body")
		}
		if err := json.Unmarshal(body, target); err != nil {
			return backoff.Permanent(fmt.Errorf("json decode error: %v body=%s", err, string(body)))
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

// Mock returns a canned transcript; used when USE_MOCK_TRANSCRIBE is set.
type Mock struct {
	Text string
}

func (m Mock) Transcribe(ctx context.Context, _ string, audio io.Reader) (types.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return types.Transcript{}, err
	}
	n, err := io.Copy(io.Discard, audio)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("reading audio: %w", err)
	}
	text := m.Text
	if text == "" {
		text = "Agent: Thank you for calling, my name is Sam, how can I help you today? " +
			"Customer: I was charged twice on my last bill and I want a refund. " +
			"Agent: I am sorry about that. Let me verify your account and raise the refund right away."
	}
	return types.Transcript{
		Text:     text,
		Language: "en",
		// roughly 16 KB per second of compressed speech
		DurationSeconds: types.Round2(float64(n) / 16000),
	}, nil
}

// New picks the mock or the HTTP transcriber from configuration.
func New(cfg config.TranscriptionConfig, log *logger.Logger) (Transcriber, error) {
	if cfg.Mock {
		return Mock{}, nil
	}
	if cfg.URL == "" {
		return nil, errors.New("transcription url not set")
	}
	return NewWhisperClient(cfg, log), nil
}
