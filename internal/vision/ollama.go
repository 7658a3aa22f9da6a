package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// OllamaConfig configures a local Ollama server with a vision model.
type OllamaConfig struct {
	Endpoint    string // default http://localhost:11434
	Model       string // default llama3.2-vision
	Temperature float32
	Timeout     time.Duration
}

type OllamaParser struct {
	cfg  OllamaConfig
	http *http.Client
	log  *slog.Logger
}

func NewOllamaParser(cfg OllamaConfig, logger *slog.Logger) *OllamaParser {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2-vision"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaParser{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, log: logger}
}

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	System  string         `json:"system,omitempty"`
	Prompt  string         `json:"prompt"`
	Images  []string       `json:"images,omitempty"`
	Format  string         `json:"format,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (o *OllamaParser) ExtractShifts(ctx context.Context, req Request) ([]Candidate, []byte, error) {
	start := time.Now()
	body := ollamaGenerateRequest{
		Model:   o.cfg.Model,
		System:  systemPrompt(req),
		Prompt:  userPrompt(req) + "\nWrap the array as {\"shifts\": [...]}.",
		Format:  "json",
		Options: map[string]any{"temperature": o.cfg.Temperature},
	}
	if req.hasImage() {
		body.Images = []string{base64.StdEncoding.EncodeToString(req.Image)}
	}

	url := strings.TrimRight(o.cfg.Endpoint, "/") + "/api/generate"
	raw, _, err := SendJSON(ctx, o.http, url, body, nil, o.log)
	if err != nil {
		return nil, raw, fmt.Errorf("ollama: %w", err)
	}
	var gr ollamaGenerateResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return nil, raw, fmt.Errorf("decode ollama response: %w", err)
	}
	cands, content, err := decodeAnswer(gr.Response, o.log)
	if err != nil {
		return nil, content, err
	}
	o.log.Info("vision.extract.ok", "provider", "ollama", "model", o.cfg.Model, "days", len(cands),
		"elapsed_ms", time.Since(start).Milliseconds())
	return cands, content, nil
}
