package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"classpkg/backend/internal/domain"
	"classpkg/backend/internal/store"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"

	slotsNoOverlapConstraint = "schedule_slots_no_overlap"
)

type PackageRepo struct {
	db *bun.DB
}

func NewPackageRepo(db *bun.DB) *PackageRepo {
	return &PackageRepo{db: db}
}

type packageTx struct {
	tx bun.Tx
}

func (r *PackageRepo) Create(ctx context.Context, pkg domain.ClassPackage, slots []domain.ScheduleSlot) (domain.ClassPackage, []domain.ScheduleSlot, error) {
	if pkg.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.ClassPackage{}, nil, err
		}
		pkg.ID = id
	}

	var (
		outPkg   domain.ClassPackage
		outSlots []domain.ScheduleSlot
	)
	err := r.inPackageTx(ctx, pkg.ID, func(ctx context.Context, ptx packageTx) error {
		created, replayed, err := ptx.insertPackage(ctx, pkg)
		if err != nil {
			return err
		}
		outPkg = created

		if replayed {
			outSlots, err = ptx.listSlots(ctx, created.ID)
			return err
		}

		outSlots, err = ptx.insertSlots(ctx, created.ID, slots)
		return err
	})
	if err != nil {
		return domain.ClassPackage{}, nil, err
	}
	return outPkg, outSlots, nil
}

func (r *PackageRepo) Get(ctx context.Context, vendorID string, packageID uuid.UUID) (domain.ClassPackage, []domain.ScheduleSlot, error) {
	var pkg domain.ClassPackage
	err := r.db.NewSelect().
		Model(&pkg).
		Where("id = ?", packageID).
		Where("vendor_id = ?", vendorID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ClassPackage{}, nil, store.ErrNotFound
		}
		return domain.ClassPackage{}, nil, err
	}

	var slots []domain.ScheduleSlot
	err = r.db.NewSelect().
		Model(&slots).
		Where("package_id = ?", packageID).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return domain.ClassPackage{}, nil, err
	}
	return pkg, slots, nil
}

func (r *PackageRepo) InPackageTransaction(ctx context.Context, packageID uuid.UUID, fn func(ctx context.Context, tx store.PackageTx) error) error {
	return r.inPackageTx(ctx, packageID, func(ctx context.Context, tx packageTx) error {
		return fn(ctx, tx)
	})
}

func (r *PackageRepo) inPackageTx(ctx context.Context, packageID uuid.UUID, fn func(ctx context.Context, tx packageTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockPackage(ctx, tx, packageID); err != nil {
			return err
		}
		return fn(ctx, packageTx{tx: tx})
	})
}

func lockPackage(ctx context.Context, tx bun.Tx, packageID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", packageID.String()).Exec(ctx)
	return err
}

func (r packageTx) GetPackageWithSlotsAndEnrollmentFlag(ctx context.Context, packageID uuid.UUID) (domain.PackageSnapshot, error) {
	var pkg domain.ClassPackage
	err := r.tx.NewSelect().
		Model(&pkg).
		Where("id = ?", packageID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PackageSnapshot{}, store.ErrNotFound
		}
		return domain.PackageSnapshot{}, err
	}

	slots, err := r.listSlots(ctx, packageID)
	if err != nil {
		return domain.PackageSnapshot{}, err
	}

	enrolled, err := r.HasActiveEnrollments(ctx, packageID)
	if err != nil {
		return domain.PackageSnapshot{}, err
	}

	return domain.PackageSnapshot{
		Package:              pkg,
		Slots:                slots,
		HasActiveEnrollments: enrolled,
	}, nil
}

func (r packageTx) HasActiveEnrollments(ctx context.Context, packageID uuid.UUID) (bool, error) {
	return r.tx.NewSelect().
		Model((*domain.Enrollment)(nil)).
		Where("package_id = ?", packageID).
		Where("status = ?", domain.EnrollmentStatusActive).
		Exists(ctx)
}

func (r packageTx) ReplaceSlotsAndPolicy(ctx context.Context, packageID uuid.UUID, update store.ScheduleUpdate) ([]domain.ScheduleSlot, error) {
	var slots []domain.ScheduleSlot
	if update.ReplaceSlots {
		_, err := r.tx.NewDelete().
			Model((*domain.ScheduleSlot)(nil)).
			Where("package_id = ?", packageID).
			Exec(ctx)
		if err != nil {
			return nil, err
		}

		slots, err = r.insertSlots(ctx, packageID, update.Slots)
		if err != nil {
			return nil, err
		}
	}

	recurrence, err := json.Marshal(update.Recurrence)
	if err != nil {
		return nil, err
	}

	res, err := r.tx.NewUpdate().
		Model((*domain.ClassPackage)(nil)).
		Set("cancellation_policy_type = ?", update.Policy.Type).
		Set("reschedule_days_before = ?", update.Policy.RescheduleDaysBefore).
		Set("scheduling_type = ?", update.Recurrence.Type).
		Set("recurrence = ?::jsonb", string(recurrence)).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", packageID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	if !update.ReplaceSlots {
		return r.listSlots(ctx, packageID)
	}
	return slots, nil
}

func (r packageTx) DeletePackage(ctx context.Context, packageID uuid.UUID) error {
	res, err := r.tx.NewDelete().
		Model((*domain.ClassPackage)(nil)).
		Where("id = ?", packageID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// insertPackage inserts pkg. A package that already exists under the same id
// is returned with replayed set when it matches pkg. The caller holds the
// package lock, so the lookup and the insert cannot race.
func (r packageTx) insertPackage(ctx context.Context, pkg domain.ClassPackage) (domain.ClassPackage, bool, error) {
	var existing domain.ClassPackage
	err := r.tx.NewSelect().
		Model(&existing).
		Where("id = ?", pkg.ID).
		Limit(1).
		Scan(ctx)
	switch {
	case err == nil:
		if !domain.SameDefinition(existing, pkg) {
			return domain.ClassPackage{}, false, store.ErrIdempotencyConflict
		}
		return existing, true, nil
	case !errors.Is(err, sql.ErrNoRows):
		return domain.ClassPackage{}, false, err
	}

	m := pkg
	if _, err := r.tx.NewInsert().Model(&m).Exec(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.ClassPackage{}, false, store.ErrIdempotencyConflict
		}
		return domain.ClassPackage{}, false, err
	}
	return m, false, nil
}

func (r packageTx) insertSlots(ctx context.Context, packageID uuid.UUID, slots []domain.ScheduleSlot) ([]domain.ScheduleSlot, error) {
	if len(slots) == 0 {
		return []domain.ScheduleSlot{}, nil
	}

	rows := make([]domain.ScheduleSlot, len(slots))
	for i, s := range slots {
		rows[i] = domain.ScheduleSlot{
			ID:             s.ID,
			PackageID:      packageID,
			StartTime:      s.StartTime.UTC(),
			EndTime:        s.EndTime.UTC(),
			AvailableSlots: s.AvailableSlots,
			CreatedAt:      s.CreatedAt,
		}
	}

	_, err := r.tx.NewInsert().Model(&rows).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation && pgErr.ConstraintName == slotsNoOverlapConstraint {
			return nil, store.ErrSlotOverlap
		}
		return nil, err
	}
	return rows, nil
}

func (r packageTx) listSlots(ctx context.Context, packageID uuid.UUID) ([]domain.ScheduleSlot, error) {
	var rows []domain.ScheduleSlot
	err := r.tx.NewSelect().
		Model(&rows).
		Where("package_id = ?", packageID).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
