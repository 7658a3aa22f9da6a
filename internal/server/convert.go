package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/pdftable"
	"github.com/joseph-ayodele/shifts-tracker/internal/pipeline"
)

func str(in *structpb.Struct, key string) string {
	return strings.TrimSpace(in.GetFields()[key].GetStringValue())
}

func num(in *structpb.Struct, key string) int {
	return int(in.GetFields()[key].GetNumberValue())
}

// toStruct converts any JSON-encodable value into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return structpb.NewStruct(m)
}

// importRequest is the decoded payload of ParseCalendar and ImportCalendar.
type importRequest struct {
	filename string
	data     []byte
	text     string
	hint     *calendar.Period
	employee *pdftable.Employee
}

func parseImportRequest(in *structpb.Struct, now time.Time) (importRequest, error) {
	req := importRequest{filename: str(in, "filename"), text: in.GetFields()["text"].GetStringValue()}
	if b64 := str(in, "data"); b64 != "" {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return req, common.NewAppError("INVALID_INPUT", "data must be base64", common.ErrInvalidInput)
		}
		req.data = data
	}
	if len(req.data) == 0 && strings.TrimSpace(req.text) == "" {
		return req, common.NewAppError("INVALID_INPUT", "data or text is required", common.ErrInvalidInput)
	}
	hint, err := parsePeriod(in, now, false)
	if err != nil {
		return req, err
	}
	req.hint = hint
	if name, id := str(in, "employeeName"), str(in, "employeeId"); name != "" || id != "" {
		req.employee = &pdftable.Employee{Name: name, ID: id}
	}
	return req, nil
}

// parsePeriod reads the 1-based "month" and optional "year" fields. The year
// defaults to the current one.
func parsePeriod(in *structpb.Struct, now time.Time, required bool) (*calendar.Period, error) {
	month, year := num(in, "month"), num(in, "year")
	if month == 0 && year == 0 {
		if required {
			return nil, common.NewAppError("INVALID_INPUT", "month is required", common.ErrInvalidInput)
		}
		return nil, nil
	}
	if month < 1 || month > 12 {
		return nil, common.NewAppError("INVALID_INPUT", fmt.Sprintf("month %d out of range 1-12", month), common.ErrInvalidInput)
	}
	if year == 0 {
		year = now.Year()
	}
	p := calendar.NewPeriod(month-1, year)
	return &p, nil
}

func parseDate(in *structpb.Struct, key string) (string, error) {
	v := str(in, key)
	if v == "" {
		return "", nil
	}
	if err := common.ValidateAndReturnError(common.NewValidator().Field(key, v, common.ISODate)); err != nil {
		return "", err
	}
	return v, nil
}

func periodDoc(p calendar.Period) map[string]any {
	return map[string]any{
		"month":      p.Month + 1,
		"year":       p.Year,
		"monthFound": p.MonthFound,
		"yearFound":  p.YearFound,
	}
}

func resultDoc(res *pipeline.Result) map[string]any {
	shifts := res.Shifts
	if shifts == nil {
		shifts = []calendar.ParsedCalendarShift{}
	}
	return map[string]any{
		"shifts":          shifts,
		"period":          periodDoc(res.Period),
		"method":          res.Method,
		"gridApproximate": res.GridApproximate,
		"warnings":        res.Warnings,
		"durationMs":      res.Duration.Milliseconds(),
	}
}
