package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OpenAIConfig configures any OpenAI-compatible chat/completions endpoint
// (OpenAI itself, Forge and similar gateways).
type OpenAIConfig struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // default gemini-2.5-flash on gateways, gpt-4o-mini on OpenAI
	Temperature float32       // 0..2
	Timeout     time.Duration // http client timeout
	MaxTokens   int
}

type OpenAIParser struct {
	cfg  OpenAIConfig
	http *http.Client
	log  *slog.Logger
}

func NewOpenAIParser(cfg OpenAIConfig, logger *slog.Logger) *OpenAIParser {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIParser{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, log: logger}
}

func (c *OpenAIParser) ExtractShifts(ctx context.Context, req Request) ([]Candidate, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	c.log.Info("vision.extract.start", "req_id", rid, "provider", "openai", "model", c.cfg.Model,
		"temp", c.cfg.Temperature, "has_image", req.hasImage(), "text_len", len(req.OCRText))

	var user any = userPrompt(req)
	if req.hasImage() {
		mime := req.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		user = []map[string]any{
			{
				"type": "image_url",
				"image_url": map[string]any{
					"url":    "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(req.Image),
					"detail": "high",
				},
			},
			{"type": "text", "text": userPrompt(req)},
		}
	}

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"max_tokens":      c.cfg.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt(req) + " Wrap the array as {\"shifts\": [...]}."},
			{"role": "user", "content": user},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, err := SendJSON(ctx, c.http, endpoint, body, headers, c.log)
	if err != nil {
		c.log.Error("vision.extract.http_error", "req_id", rid, "status", status, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, raw, fmt.Errorf("openai: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, raw, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return nil, raw, fmt.Errorf("no choices in openai response")
	}

	cands, content, err := decodeAnswer(cc.Choices[0].Message.Content, c.log)
	if err != nil {
		c.log.Error("vision.extract.decode_failed", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, content, err
	}
	c.log.Info("vision.extract.ok", "req_id", rid, "provider", "openai", "days", len(cands),
		"elapsed_ms", time.Since(start).Milliseconds())
	return cands, content, nil
}
