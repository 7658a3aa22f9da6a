package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/shifts-tracker/constants"
	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/entity"
)

const importJobsTable = "import_jobs"

var importJobColumns = []string{"id", "source_path", "format", "method", "status", "started_at", "finished_at", "shifts_found", "period", "error_message"}

// JobOutcome is what an import reports when it ends.
type JobOutcome struct {
	Status       constants.JobStatus
	Method       string
	ShiftsFound  int
	Period       string
	ErrorMessage string
}

type ImportJobRepository interface {
	Start(ctx context.Context, sourcePath, format string) (*entity.ImportJob, error)
	Finish(ctx context.Context, jobID uuid.UUID, out JobOutcome) error
	Get(ctx context.Context, jobID uuid.UUID) (*entity.ImportJob, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.ImportJob, error)
}

type importJobRepo struct {
	db  *DB
	log *slog.Logger
	now func() time.Time
}

func NewImportJobRepository(db *DB, log *slog.Logger) ImportJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &importJobRepo{db: db, log: log, now: time.Now}
}

func (r *importJobRepo) Start(ctx context.Context, sourcePath, format string) (*entity.ImportJob, error) {
	job := &entity.ImportJob{
		ID:         uuid.New(),
		SourcePath: sourcePath,
		Format:     format,
		Status:     string(constants.JobStatusRunning),
		StartedAt:  r.now().UTC(),
	}
	query, args := r.db.builder().Insert(importJobsTable).
		Columns("id", "source_path", "format", "status", "started_at", "shifts_found").
		Values(job.ID.String(), job.SourcePath, job.Format, job.Status, job.StartedAt, 0).
		Query()
	if _, err := r.db.SQL.ExecContext(ctx, query, args...); err != nil {
		r.log.Error("import_job start failed", "source_path", sourcePath, "err", err)
		return nil, common.NewAppError("DB_ERROR", "start import job", errors.Join(common.ErrDatabase, err))
	}
	r.log.Info("import_job started", "job_id", job.ID, "source_path", sourcePath, "format", format)
	return job, nil
}

func (r *importJobRepo) Finish(ctx context.Context, jobID uuid.UUID, out JobOutcome) error {
	query, args := r.db.builder().Update(importJobsTable).
		Set("status", string(out.Status)).
		Set("finished_at", r.now().UTC()).
		Set("shifts_found", out.ShiftsFound).
		Set("method", nullable(out.Method)).
		Set("period", nullable(out.Period)).
		Set("error_message", nullable(out.ErrorMessage)).
		Where(entsql.EQ("id", jobID.String())).
		Query()
	res, err := r.db.SQL.ExecContext(ctx, query, args...)
	if err != nil {
		r.log.Error("import_job finish failed", "job_id", jobID, "err", err)
		return common.NewAppError("DB_ERROR", "finish import job", errors.Join(common.ErrDatabase, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.NewAppError("NOT_FOUND", "import job "+jobID.String(), common.ErrNotFound)
	}
	if out.Status == constants.JobStatusFailed {
		r.log.Warn("import_job finished (FAILED)", "job_id", jobID, "error", out.ErrorMessage)
	} else {
		r.log.Info("import_job finished", "job_id", jobID, "status", out.Status, "shifts", out.ShiftsFound)
	}
	return nil
}

func (r *importJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*entity.ImportJob, error) {
	sel := r.db.builder().Select(importJobColumns...).From(r.db.builder().Table(importJobsTable)).
		Where(entsql.EQ("id", jobID.String())).
		Limit(1)
	jobs, err := r.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, common.NewAppError("NOT_FOUND", "import job "+jobID.String(), common.ErrNotFound)
	}
	return jobs[0], nil
}

func (r *importJobRepo) ListRecent(ctx context.Context, limit int) ([]*entity.ImportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	sel := r.db.builder().Select(importJobColumns...).From(r.db.builder().Table(importJobsTable)).
		OrderBy(entsql.Desc("started_at")).
		Limit(limit)
	return r.query(ctx, sel)
}

func (r *importJobRepo) query(ctx context.Context, sel *entsql.Selector) ([]*entity.ImportJob, error) {
	query, args := sel.Query()
	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to query import jobs", "err", err)
		return nil, common.NewAppError("DB_ERROR", "query import jobs", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []*entity.ImportJob
	for rows.Next() {
		var (
			job                    entity.ImportJob
			id                     string
			method, period, errMsg sql.NullString
			finished               sql.NullTime
		)
		if err := rows.Scan(&id, &job.SourcePath, &job.Format, &method, &job.Status, &job.StartedAt, &finished, &job.ShiftsFound, &period, &errMsg); err != nil {
			return nil, common.NewAppError("DB_ERROR", "scan import job", errors.Join(common.ErrDatabase, err))
		}
		if job.ID, err = uuid.Parse(id); err != nil {
			return nil, common.NewAppError("DB_ERROR", "bad import job id "+id, errors.Join(common.ErrDatabase, err))
		}
		job.Method = nullString(method)
		job.Period = nullString(period)
		job.ErrorMessage = nullString(errMsg)
		if finished.Valid {
			t := finished.Time
			job.FinishedAt = &t
		}
		out = append(out, &job)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError("DB_ERROR", "query import jobs", errors.Join(common.ErrDatabase, err))
	}
	return out, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
