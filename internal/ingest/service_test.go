package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/shifts-tracker/constants"
	"github.com/joseph-ayodele/shifts-tracker/internal/calendar"
	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/entity"
	"github.com/joseph-ayodele/shifts-tracker/internal/pdftable"
	"github.com/joseph-ayodele/shifts-tracker/internal/pipeline"
	"github.com/joseph-ayodele/shifts-tracker/internal/repository"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeImporter answers by file name: "empty" finds nothing, "broken" fails,
// anything else yields two March 2025 shifts.
type fakeImporter struct {
	mu     sync.Mutex
	inputs []pipeline.Input
	hashes []string
}

func (f *fakeImporter) Import(ctx context.Context, in pipeline.Input) (*pipeline.Result, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	h, _ := common.ContentHashFromContext(ctx)
	f.hashes = append(f.hashes, h)
	f.mu.Unlock()

	base := filepath.Base(in.Filename)
	period := calendar.NewPeriod(2, 2025)
	switch {
	case strings.HasPrefix(base, "broken"):
		return nil, common.NewAppError("DECODE_ERROR", "cannot decode image", common.ErrDecode)
	case strings.HasPrefix(base, "empty"):
		return &pipeline.Result{Period: period, Method: constants.MethodImageOCR, Warnings: []string{pipeline.WarnNoShifts}}, nil
	}
	return &pipeline.Result{
		Period: period,
		Method: constants.MethodImageOCR,
		Shifts: []calendar.ParsedCalendarShift{
			{Date: "2025-03-03", StartTime: "08:00", EndTime: "15:00", IsValid: true, Confidence: 0.9},
			{Date: "2025-03-04", StartTime: calendar.UnknownTime, EndTime: calendar.UnknownTime, ShiftType: "Libre", Confidence: 0.95},
		},
	}, nil
}

type fixture struct {
	svc      *Service
	importer *fakeImporter
	shifts   repository.ShiftRepository
	jobs     repository.ImportJobRepository
	dir      string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{Driver: "sqlite", DSN: ":memory:"}, testLogger)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx))
	t.Cleanup(func() { db.Close(testLogger) })

	f := &fixture{
		importer: &fakeImporter{},
		shifts:   repository.NewShiftRepository(db, testLogger),
		jobs:     repository.NewImportJobRepository(db, testLogger),
		dir:      t.TempDir(),
	}
	f.svc = NewService(f.importer, f.shifts, f.jobs, append([]Option{WithLogger(testLogger)}, opts...)...)
	return f
}

func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestPath_ReplacesMonth(t *testing.T) {
	ctx := context.Background()
	emp := &pdftable.Employee{ID: "1234"}
	f := newFixture(t, WithEmployee(emp))
	require.NoError(t, f.shifts.UpsertMany(ctx, []entity.Shift{
		{ID: "old-march", Date: "2025-03-20", StartTime: "08:00", EndTime: "15:00", Location: "Regular", Origin: "IMG"},
		{ID: "april", Date: "2025-04-01", StartTime: "08:00", EndTime: "15:00", Location: "Regular", Origin: "IMG"},
	}))

	path := f.write(t, "marzo.png", "calendar")
	out, err := f.svc.IngestPath(ctx, path)
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("calendar"))
	assert.Equal(t, hex.EncodeToString(sum[:]), out.HashHex)
	assert.Equal(t, constants.JobStatusParsed, out.Status)
	assert.Equal(t, 2, out.Shifts)
	assert.Equal(t, "2025-03", out.Period)
	assert.Equal(t, constants.MethodImageOCR, out.Method)

	require.Len(t, f.importer.inputs, 1)
	assert.Equal(t, []byte("calendar"), f.importer.inputs[0].Data)
	assert.Same(t, emp, f.importer.inputs[0].Employee)
	assert.Equal(t, out.HashHex, f.importer.hashes[0])

	stored, err := f.shifts.ListRange(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "2025-03-03", stored[0].Date)
	assert.Equal(t, "Regular", stored[0].Location)
	assert.Equal(t, "2025-03-04", stored[1].Date)
	assert.Equal(t, "Libre", stored[1].Location)
	assert.Equal(t, "", stored[1].StartTime)
	assert.Equal(t, "april", stored[2].ID)

	job, err := f.jobs.Get(ctx, out.JobID)
	require.NoError(t, err)
	assert.Equal(t, "PARSED", job.Status)
	assert.Equal(t, "IMAGE", job.Format)
	assert.Equal(t, 2, job.ShiftsFound)
	assert.NotNil(t, job.FinishedAt)
}

func TestIngestPath_EmptyKeepsStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.NoError(t, f.shifts.UpsertMany(ctx, []entity.Shift{
		{ID: "keep", Date: "2025-03-20", StartTime: "08:00", EndTime: "15:00", Location: "Regular", Origin: "IMG"},
	}))

	out, err := f.svc.IngestPath(ctx, f.write(t, "empty.jpg", "blurry"))
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusEmpty, out.Status)
	assert.Equal(t, []string{pipeline.WarnNoShifts}, out.Warnings)

	stored, err := f.shifts.ListRange(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	job, err := f.jobs.Get(ctx, out.JobID)
	require.NoError(t, err)
	assert.Equal(t, "EMPTY", job.Status)
}

func TestIngestPath_Failures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	out, err := f.svc.IngestPath(ctx, f.write(t, "broken.png", "???"))
	require.ErrorIs(t, err, common.ErrDecode)
	assert.Equal(t, constants.JobStatusFailed, out.Status)
	job, err := f.jobs.Get(ctx, out.JobID)
	require.NoError(t, err)
	assert.Equal(t, "FAILED", job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "cannot decode")

	_, err = f.svc.IngestPath(ctx, f.write(t, "notes.docx", "x"))
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)

	_, err = f.svc.IngestPath(ctx, filepath.Join(f.dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	recent, err := f.jobs.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1, "rejected paths never open a job")
}

func TestIngestDirectory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.write(t, "a.png", "a")
	f.write(t, ".hidden/b.png", "b")
	f.write(t, "c.docx", "c")
	f.write(t, "sub/empty.png", "d")
	f.write(t, "sub/broken.pdf", "e")

	results, stats, err := f.svc.IngestDirectory(ctx, f.dir, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(1), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Empty)
	assert.Equal(t, uint32(1), stats.Failed)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.NotContains(t, r.SourcePath, ".hidden")
	}

	_, stats, err = f.svc.IngestDirectory(ctx, f.dir, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), stats.Matched)

	_, _, err = f.svc.IngestDirectory(ctx, " ", true)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestIngestDirectory_Canceled(t *testing.T) {
	f := newFixture(t)
	f.write(t, "a.png", "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := f.svc.IngestDirectory(ctx, f.dir, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.importer.inputs)
}

func TestWatcher_EmitsNewFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.pdf"), []byte("x"), 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		Debounce:    20 * time.Millisecond,
		SkipHidden:  true,
		Logger:      testLogger,
	})
	require.NoError(t, err)

	next := func() string {
		select {
		case p := <-events:
			return filepath.Base(p)
		case <-time.After(5 * time.Second):
			t.Fatal("no watcher event")
			return ""
		}
	}
	assert.Equal(t, "existing.pdf", next())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.docx"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".tmp.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marzo.png"), []byte("x"), 0o644))
	assert.Equal(t, "marzo.png", next())

	cancel()
	for range events {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{Logger: testLogger})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/inbox/.DS_Store"))
	assert.False(t, IsHidden("."))
	assert.False(t, IsHidden("/inbox/marzo.png"))
	assert.True(t, AllowedExt(".HEIC"))
	assert.False(t, AllowedExt(".docx"))
}

func TestStore_TextUsesDefaultsAndRecordsFormat(t *testing.T) {
	ctx := context.Background()
	hint := calendar.NewPeriod(2, 2025)
	f := newFixture(t, WithPeriodHint(&hint))

	out, res, err := f.svc.Store(ctx, Source{Name: "pasted", Text: "3 08:00 15:00"})
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Empty(t, out.HashHex)
	assert.Equal(t, constants.JobStatusParsed, out.Status)
	assert.Same(t, &hint, f.importer.inputs[0].Hint)
	assert.Equal(t, "3 08:00 15:00", f.importer.inputs[0].Text)

	job, err := f.jobs.Get(ctx, out.JobID)
	require.NoError(t, err)
	assert.Equal(t, "TXT", job.Format)
}
