package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini parser.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	Retries     int
}

// GeminiParser reads calendars with Gemini structured output.
type GeminiParser struct {
	cfg   GeminiConfig
	log   *slog.Logger
	opts  []option.ClientOption
	sleep func(time.Duration)
}

func NewGeminiParser(cfg GeminiConfig, logger *slog.Logger, opts ...option.ClientOption) *GeminiParser {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	return &GeminiParser{cfg: cfg, log: logger, opts: opts, sleep: time.Sleep}
}

func (g *GeminiParser) ExtractShifts(ctx context.Context, req Request) ([]Candidate, []byte, error) {
	if g.cfg.APIKey == "" {
		return nil, nil, errors.New("gemini: API key is empty")
	}
	rid := uuid.New().String()
	start := time.Now()
	g.log.Info("vision.extract.start", "req_id", rid, "provider", "gemini", "model", g.cfg.Model,
		"has_image", req.hasImage(), "text_len", len(req.OCRText), "period", req.Period.String())

	cl, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(g.cfg.APIKey)}, g.opts...)...)
	if err != nil {
		return nil, nil, fmt.Errorf("gemini client: %w", err)
	}
	defer func() {
		if err := cl.Close(); err != nil {
			g.log.Warn("vision.gemini.close_error", "req_id", rid, "error", err)
		}
	}()

	m := cl.GenerativeModel(g.cfg.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(g.cfg.Temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   geminiResponseSchema(),
	}
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt(req))}}

	parts := []genai.Part{genai.Text(userPrompt(req))}
	if req.hasImage() {
		mime := req.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, genai.Blob{MIMEType: mime, Data: req.Image})
	}

	var lastErr error
	for attempt := 1; attempt <= g.cfg.Retries; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			g.log.Warn("vision.gemini.retry", "req_id", rid, "attempt", attempt, "error", err)
			if ctx.Err() != nil {
				break
			}
			g.sleep(time.Duration(attempt) * 300 * time.Millisecond)
			continue
		}
		txt := firstText(resp)
		if txt == "" {
			return nil, nil, fmt.Errorf("gemini: empty response")
		}
		cands, raw, err := decodeAnswer(txt, g.log)
		if err != nil {
			g.log.Error("vision.extract.decode_failed", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
			return nil, raw, err
		}
		g.log.Info("vision.extract.ok", "req_id", rid, "provider", "gemini", "days", len(cands), "elapsed_ms", time.Since(start).Milliseconds())
		return cands, raw, nil
	}
	g.log.Error("vision.extract.failed", "req_id", rid, "error", lastErr, "elapsed_ms", time.Since(start).Milliseconds())
	return nil, nil, fmt.Errorf("gemini: %w", lastErr)
}

func geminiResponseSchema() *genai.Schema {
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc, Nullable: true}
	}
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"day":       {Type: genai.TypeInteger, Description: "Day of month"},
				"month":     {Type: genai.TypeInteger, Description: "Month 1-12", Nullable: true},
				"year":      {Type: genai.TypeInteger, Description: "Year", Nullable: true},
				"shiftType": str("Regular, Libre, TD or JT"),
				"startTime": str("Start time HH:MM or null"),
				"endTime":   str("End time HH:MM or null"),
				"color":     str("blue, red or gray"),
				"notes":     str("Notes"),
			},
			Required: []string{"day"},
		},
	}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			return s
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
