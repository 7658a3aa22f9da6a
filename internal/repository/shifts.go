package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/shifts-tracker/internal/common"
	"github.com/joseph-ayodele/shifts-tracker/internal/entity"
)

const (
	shiftsTable = "shifts"
	// rows per INSERT, well under the bind variable limits of both dialects
	upsertBatch = 500
)

var shiftColumns = []string{"id", "date", "start_time", "end_time", "location", "origin", "created_at", "updated_at"}

type ShiftRepository interface {
	UpsertMany(ctx context.Context, shifts []entity.Shift) error
	// ListRange returns shifts with from <= date <= to; empty bounds are open.
	ListRange(ctx context.Context, from, to string) ([]entity.Shift, error)
	Delete(ctx context.Context, id string) error
	// ReplaceRange deletes the shifts in [from, to] and stores the given ones
	// in one transaction. Empty bounds replace everything.
	ReplaceRange(ctx context.Context, from, to string, shifts []entity.Shift) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type shiftRepository struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

func NewShiftRepository(db *DB, logger *slog.Logger) ShiftRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &shiftRepository{db: db, logger: logger, now: time.Now}
}

func (r *shiftRepository) UpsertMany(ctx context.Context, shifts []entity.Shift) error {
	if err := validateShifts(shifts); err != nil {
		return err
	}
	if err := r.upsert(ctx, r.db.SQL, shifts); err != nil {
		r.logger.Error("shifts upsert failed", "count", len(shifts), "error", err)
		return common.NewAppError("DB_ERROR", "upsert shifts", errors.Join(common.ErrDatabase, err))
	}
	r.logger.Info("shifts upserted", "count", len(shifts))
	return nil
}

func (r *shiftRepository) upsert(ctx context.Context, ex execer, shifts []entity.Shift) error {
	now := r.now().UTC()
	for start := 0; start < len(shifts); start += upsertBatch {
		end := min(start+upsertBatch, len(shifts))

		ins := r.db.builder().Insert(shiftsTable).Columns(shiftColumns...)
		for _, s := range shifts[start:end] {
			created := s.CreatedAt
			if created.IsZero() {
				created = now
			}
			ins.Values(s.ID, s.Date, s.StartTime, s.EndTime, s.Location, s.Origin, created.UTC(), now)
		}
		ins.OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range shiftColumns[1:] {
					if c != "created_at" {
						u.SetExcluded(c)
					}
				}
			}),
		)
		query, args := ins.Query()
		if _, err := ex.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	return nil
}

func (r *shiftRepository) ListRange(ctx context.Context, from, to string) ([]entity.Shift, error) {
	sel := r.db.builder().Select(shiftColumns...).From(r.db.builder().Table(shiftsTable))
	if p := dateRange(from, to); p != nil {
		sel.Where(p)
	}
	sel.OrderBy("date", "start_time", "id")
	query, args := sel.Query()

	rows, err := r.db.SQL.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to list shifts", "from", from, "to", to, "error", err)
		return nil, common.NewAppError("DB_ERROR", "list shifts", errors.Join(common.ErrDatabase, err))
	}
	defer rows.Close()

	var out []entity.Shift
	for rows.Next() {
		var s entity.Shift
		if err := rows.Scan(&s.ID, &s.Date, &s.StartTime, &s.EndTime, &s.Location, &s.Origin, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, common.NewAppError("DB_ERROR", "scan shift", errors.Join(common.ErrDatabase, err))
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError("DB_ERROR", "list shifts", errors.Join(common.ErrDatabase, err))
	}
	return out, nil
}

func (r *shiftRepository) Delete(ctx context.Context, id string) error {
	query, args := r.db.builder().Delete(shiftsTable).Where(entsql.EQ("id", id)).Query()
	res, err := r.db.SQL.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to delete shift", "id", id, "error", err)
		return common.NewAppError("DB_ERROR", "delete shift", errors.Join(common.ErrDatabase, err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.NewAppError("NOT_FOUND", "shift "+id, common.ErrNotFound)
	}
	r.logger.Info("shift deleted", "id", id)
	return nil
}

func (r *shiftRepository) ReplaceRange(ctx context.Context, from, to string, shifts []entity.Shift) (err error) {
	if err := validateShifts(shifts); err != nil {
		return err
	}
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return common.NewAppError("DB_ERROR", "begin", errors.Join(common.ErrDatabase, err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			r.logger.Error("shifts replace failed", "from", from, "to", to, "error", err)
		}
	}()

	del := r.db.builder().Delete(shiftsTable)
	if p := dateRange(from, to); p != nil {
		del.Where(p)
	}
	query, args := del.Query()
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return common.NewAppError("DB_ERROR", "delete range", errors.Join(common.ErrDatabase, err))
	}
	if err = r.upsert(ctx, tx, shifts); err != nil {
		return common.NewAppError("DB_ERROR", "insert shifts", errors.Join(common.ErrDatabase, err))
	}
	if err = tx.Commit(); err != nil {
		return common.NewAppError("DB_ERROR", "commit", errors.Join(common.ErrDatabase, err))
	}

	removed, _ := res.RowsAffected()
	r.logger.Info("shifts replaced", "from", from, "to", to, "removed", removed, "stored", len(shifts))
	return nil
}

func dateRange(from, to string) *entsql.Predicate {
	switch {
	case from != "" && to != "":
		return entsql.And(entsql.GTE("date", from), entsql.LTE("date", to))
	case from != "":
		return entsql.GTE("date", from)
	case to != "":
		return entsql.LTE("date", to)
	default:
		return nil
	}
}

func validateShifts(shifts []entity.Shift) error {
	for i, s := range shifts {
		v := common.NewValidator().
			Field(fmt.Sprintf("shifts[%d].id", i), s.ID, common.Required).
			Field(fmt.Sprintf("shifts[%d].location", i), s.Location, common.Required).
			Field(fmt.Sprintf("shifts[%d].date", i), s.Date, common.ISODate).
			Field(fmt.Sprintf("shifts[%d].startTime", i), s.StartTime, common.OptionalClock).
			Field(fmt.Sprintf("shifts[%d].endTime", i), s.EndTime, common.OptionalClock)
		if err := v.Error(); err != nil {
			return err
		}
	}
	return nil
}
