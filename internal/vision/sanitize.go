package vision

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var reFenced = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")

// ExtractJSONArray pulls the day array out of a model answer. Code fences,
// surrounding prose and a wrapping {"shifts": [...]} object are tolerated.
func ExtractJSONArray(content string) ([]byte, error) {
	s := strings.TrimSpace(content)
	if m := reFenced.FindStringSubmatch(s); m != nil {
		s = strings.TrimSpace(m[1])
	}

	if strings.HasPrefix(s, "{") {
		var wrapped map[string]json.RawMessage
		if err := json.Unmarshal([]byte(s), &wrapped); err == nil {
			for _, k := range []string{"shifts", "days", "data", "result"} {
				if arr, ok := wrapped[k]; ok && strings.HasPrefix(strings.TrimSpace(string(arr)), "[") {
					return arr, nil
				}
			}
		}
	}

	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in model answer")
	}
	out := []byte(s[start : end+1])
	if !json.Valid(out) {
		return nil, fmt.Errorf("model answer is not valid JSON")
	}
	return out, nil
}

var allowedKeys = map[string]struct{}{
	"day": {}, "month": {}, "year": {}, "shiftType": {},
	"startTime": {}, "endTime": {}, "color": {}, "notes": {},
}

var synonyms = map[string]string{
	"start":      "startTime",
	"start_time": "startTime",
	"end":        "endTime",
	"end_time":   "endTime",
	"type":       "shiftType",
	"shift_type": "shiftType",
	"note":       "notes",
}

// NormalizeAndSanitizeJSON rewrites a day array so a slightly off answer can
// still validate:
//   - renames known synonyms (start_time -> startTime)
//   - coerces numeric strings for day/month/year
//   - turns empty strings into null
//   - removes unknown keys and entries without a usable day
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	var dropped []string
	out := make([]map[string]any, 0, len(items))
	for i, m := range items {
		if m == nil {
			dropped = append(dropped, fmt.Sprintf("[%d](null)", i))
			continue
		}
		for from, to := range synonyms {
			if v, ok := m[from]; ok {
				if _, exists := m[to]; !exists {
					m[to] = v
				}
				delete(m, from)
			}
		}
		for k := range m {
			if _, ok := allowedKeys[k]; !ok {
				delete(m, k)
				dropped = append(dropped, fmt.Sprintf("[%d].%s(unknown)", i, k))
			}
		}
		for _, k := range []string{"day", "month", "year"} {
			v, ok := m[k]
			if !ok {
				continue
			}
			n, ok := coerceInt(v)
			if !ok {
				m[k] = nil
				dropped = append(dropped, fmt.Sprintf("[%d].%s(type)", i, k))
				continue
			}
			m[k] = n
		}
		for _, k := range []string{"shiftType", "startTime", "endTime", "color", "notes"} {
			switch t := m[k].(type) {
			case string:
				if s := strings.TrimSpace(t); s == "" || strings.EqualFold(s, "null") {
					m[k] = nil
				} else {
					m[k] = s
				}
			case nil:
			case float64:
				m[k] = strconv.FormatFloat(t, 'f', -1, 64)
			default:
				m[k] = nil
				dropped = append(dropped, fmt.Sprintf("[%d].%s(type)", i, k))
			}
		}
		if day, ok := m["day"].(int); !ok || day < 1 || day > 31 {
			dropped = append(dropped, fmt.Sprintf("[%d](no day)", i))
			continue
		}
		if month, ok := m["month"].(int); ok && (month < 1 || month > 12) {
			m["month"] = nil
		}
		if year, ok := m["year"].(int); ok && (year < 2000 || year > 2100) {
			m["year"] = nil
		}
		out = append(out, m)
	}

	b, err := json.Marshal(out)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("vision.extract.normalize_sanitize", "dropped", dropped)
	}
	return b, dropped, nil
}

func coerceInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	default:
		return 0, false
	}
}

// decodeAnswer runs the strict-then-lenient validation chain on a model
// answer and returns the candidates plus the JSON that passed validation.
func decodeAnswer(content string, logger *slog.Logger) ([]Candidate, []byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	arr, err := ExtractJSONArray(content)
	if err != nil {
		return nil, []byte(content), err
	}
	schema := BuildShiftsJSONSchema()
	if err := ValidateJSONAgainstSchema(schema, arr); err != nil {
		cleaned, dropped, sErr := NormalizeAndSanitizeJSON(arr, logger)
		if sErr != nil {
			return nil, arr, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			return nil, cleaned, fmt.Errorf("schema validation failed: %w", vErr)
		}
		logger.Warn("vision.extract.lenient_sanitize_applied", "dropped", dropped)
		arr = cleaned
	}

	var out []Candidate
	if err := json.Unmarshal(arr, &out); err != nil {
		return nil, arr, fmt.Errorf("unmarshal candidates: %w", err)
	}
	return out, arr, nil
}
