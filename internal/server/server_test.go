package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/shifts-tracker/constants"
	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/export"
	"github.com/joseph-ayodele/shifts-tracker/internal/ingest"
	"github.com/joseph-ayodele/shifts-tracker/internal/pipeline"
	"github.com/joseph-ayodele/shifts-tracker/internal/repository"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeImporter struct{}

func (fakeImporter) Import(_ context.Context, in pipeline.Input) (*pipeline.Result, error) {
	if filepath.Base(in.Filename) == "bad.png" {
		return nil, common.NewAppError("DECODE_ERROR", "cannot decode image", common.ErrDecode)
	}
	if in.Employee != nil && in.Employee.ID == "9999" {
		return nil, common.NewAppError("NOT_FOUND", "employee 9999", common.ErrEmployeeNotFound)
	}
	period := calendar.NewPeriod(2, 2025)
	if in.Hint != nil {
		period = *in.Hint
	}
	return &pipeline.Result{
		Period: period,
		Method: constants.MethodImageOCR,
		Shifts: []calendar.ParsedCalendarShift{
			{Date: period.Date(3), StartTime: "08:00", EndTime: "15:00", IsValid: true, Confidence: 0.9, Color: constants.ColorBlue},
			{Date: period.Date(4), StartTime: "14:00", EndTime: "22:00", IsValid: true, Confidence: 0.9, Color: constants.ColorBlue},
		},
	}, nil
}

type harness struct {
	client *ImportClient
	health healthpb.HealthClient
}

func newHarness(t *testing.T) harness {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{Driver: "sqlite", DSN: ":memory:"}, quiet)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(func() { db.Close(quiet) })

	shifts := repository.NewShiftRepository(db, quiet)
	jobs := repository.NewImportJobRepository(db, quiet)
	imp := fakeImporter{}
	store := ingest.NewService(imp, shifts, jobs, ingest.WithLogger(quiet))
	svc := NewImportService(imp, store, shifts, jobs, export.NewService(shifts, quiet), quiet)

	lis := bufconn.Listen(1 << 20)
	srv, _ := New(svc, quiet)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return harness{client: NewImportClient(conn), health: healthpb.NewHealthClient(conn)}
}

func doc(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func image(name string) map[string]any {
	return map[string]any{"filename": name, "data": base64.StdEncoding.EncodeToString([]byte("img"))}
}

func TestParseCalendar_DoesNotStore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	out, err := h.client.ParseCalendar(ctx, doc(t, image("marzo.png")))
	require.NoError(t, err)
	assert.Len(t, out.Fields["shifts"].GetListValue().GetValues(), 2)
	assert.Equal(t, "image-ocr", out.Fields["method"].GetStringValue())
	period := out.Fields["period"].GetStructValue().GetFields()
	assert.Equal(t, float64(3), period["month"].GetNumberValue())
	assert.Equal(t, float64(2025), period["year"].GetNumberValue())

	listed, err := h.client.ListShifts(ctx, doc(t, nil))
	require.NoError(t, err)
	assert.Empty(t, listed.Fields["shifts"].GetListValue().GetValues())
}

func TestImportCalendar_StoresAndExports(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	req := image("abril.jpg")
	req["month"], req["year"] = 4, 2025
	out, err := h.client.ImportCalendar(ctx, doc(t, req))
	require.NoError(t, err)
	assert.Equal(t, "PARSED", out.Fields["status"].GetStringValue())
	assert.Equal(t, float64(2), out.Fields["stored"].GetNumberValue())
	assert.NotEmpty(t, out.Fields["jobId"].GetStringValue())

	listed, err := h.client.ListShifts(ctx, doc(t, map[string]any{"from": "2025-04-01", "to": "2025-04-30"}))
	require.NoError(t, err)
	rows := listed.Fields["shifts"].GetListValue().GetValues()
	require.Len(t, rows, 2)
	first := rows[0].GetStructValue().GetFields()
	assert.Equal(t, "2025-04-03", first["date"].GetStringValue())
	assert.Equal(t, "Regular", first["location"].GetStringValue())

	jobs, err := h.client.ListImportJobs(ctx, doc(t, map[string]any{"limit": 5}))
	require.NoError(t, err)
	jobRows := jobs.Fields["jobs"].GetListValue().GetValues()
	require.Len(t, jobRows, 1)
	assert.Equal(t, "PARSED", jobRows[0].GetStructValue().GetFields()["status"].GetStringValue())

	xlsx, err := h.client.ExportShifts(ctx, doc(t, map[string]any{"format": "xlsx", "month": 4, "year": 2025}))
	require.NoError(t, err)
	assert.Equal(t, "turnos-2025-04.xlsx", xlsx.Fields["filename"].GetStringValue())
	raw, err := base64.StdEncoding.DecodeString(xlsx.Fields["data"].GetStringValue())
	require.NoError(t, err)
	book, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	defer book.Close()
	// April 2025 starts on a Tuesday, so the 3rd is the Thursday of week one.
	cell, err := book.GetCellValue("Turnos Abril 2025", "D2")
	require.NoError(t, err)
	assert.Equal(t, "3\nRegular\n08:00-15:00", cell)

	js, err := h.client.ExportShifts(ctx, doc(t, map[string]any{"format": "json", "from": "2025-04-04"}))
	require.NoError(t, err)
	assert.Equal(t, contentTypeJSON, js.Fields["contentType"].GetStringValue())
	raw, err = base64.StdEncoding.DecodeString(js.Fields["data"].GetStringValue())
	require.NoError(t, err)
	var exported []map[string]any
	require.NoError(t, json.Unmarshal(raw, &exported))
	require.Len(t, exported, 1)
	assert.Equal(t, "2025-04-04", exported[0]["date"])
}

func TestImportService_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	withEmployee := image("roster.pdf")
	withEmployee["employeeId"] = "9999"
	badMonth := image("marzo.png")
	badMonth["month"] = 13

	tests := []struct {
		name string
		call func() error
		code codes.Code
	}{
		{"empty request", func() error { _, err := h.client.ParseCalendar(ctx, doc(t, nil)); return err }, codes.InvalidArgument},
		{"bad base64", func() error {
			_, err := h.client.ParseCalendar(ctx, doc(t, map[string]any{"filename": "x.png", "data": "%%%"}))
			return err
		}, codes.InvalidArgument},
		{"undecodable image", func() error { _, err := h.client.ImportCalendar(ctx, doc(t, image("bad.png"))); return err }, codes.InvalidArgument},
		{"unknown employee", func() error { _, err := h.client.ParseCalendar(ctx, doc(t, withEmployee)); return err }, codes.NotFound},
		{"month out of range", func() error { _, err := h.client.ParseCalendar(ctx, doc(t, badMonth)); return err }, codes.InvalidArgument},
		{"bad list date", func() error {
			_, err := h.client.ListShifts(ctx, doc(t, map[string]any{"from": "03/2025"}))
			return err
		}, codes.InvalidArgument},
		{"export format", func() error {
			_, err := h.client.ExportShifts(ctx, doc(t, map[string]any{"format": "csv"}))
			return err
		}, codes.InvalidArgument},
		{"xlsx without month", func() error { _, err := h.client.ExportShifts(ctx, doc(t, nil)); return err }, codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.Equal(t, tt.code, status.Code(err), err.Error())
		})
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	resp, err := h.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
