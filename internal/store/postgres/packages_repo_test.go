package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"classpkg/backend/internal/domain"
	"classpkg/backend/internal/store"
)

var testPackageID = uuid.MustParse("00000000-0000-0000-0000-000000000401")

func newMockDB(t *testing.T) (*bun.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := bun.NewDB(sqlDB, pgdialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

func TestPackageRepo_InPackageTransactionLocksPackage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPackageRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(hashtext\('` + testPackageID.String() + `'\)\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	called := false
	err := repo.InPackageTransaction(context.Background(), testPackageID, func(ctx context.Context, tx store.PackageTx) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPackageRepo_InPackageTransactionRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPackageRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := repo.InPackageTransaction(context.Background(), testPackageID, func(ctx context.Context, tx store.PackageTx) error {
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPackageTx_HasActiveEnrollments(t *testing.T) {
	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		want    bool
		wantErr bool
	}{
		{
			name: "active enrollment exists",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS \(SELECT .* FROM "class_enrollments"`).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
			},
			want: true,
		},
		{
			name: "none",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS \(SELECT .* FROM "class_enrollments"`).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			},
			want: false,
		},
		{
			name: "db error",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS`).WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPackageRepo(db)

			mock.ExpectBegin()
			mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
			tt.mock(mock)
			if tt.wantErr {
				mock.ExpectRollback()
			} else {
				mock.ExpectCommit()
			}

			var got bool
			err := repo.InPackageTransaction(context.Background(), testPackageID, func(ctx context.Context, tx store.PackageTx) error {
				var err error
				got, err = tx.HasActiveEnrollments(ctx, testPackageID)
				return err
			})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.want, got)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPackageTx_DeletePackage(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "deleted", affected: 1},
		{name: "missing", affected: 0, wantErr: store.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPackageRepo(db)

			mock.ExpectBegin()
			mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(`DELETE FROM "class_packages"`).WillReturnResult(sqlmock.NewResult(0, tt.affected))
			if tt.wantErr != nil {
				mock.ExpectRollback()
			} else {
				mock.ExpectCommit()
			}

			err := repo.InPackageTransaction(context.Background(), testPackageID, func(ctx context.Context, tx store.PackageTx) error {
				return tx.DeletePackage(ctx, testPackageID)
			})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPackageTx_ReplacePolicyOnlyKeepsSlots(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPackageRepo(db)

	slotID := uuid.MustParse("00000000-0000-0000-0000-000000000402")
	start := time.Date(2026, 1, 10, 10, 0, 0, 0, time.UTC)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE "class_packages" .*cancellation_policy_type = 'FIXED_COMMITMENT'.*reschedule_days_before = NULL`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT .* FROM "schedule_slots"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "package_id", "start_time", "end_time", "available_slots", "created_at"}).
			AddRow(slotID.String(), testPackageID.String(), start, start.Add(time.Hour), 5, created))
	mock.ExpectCommit()

	var slots []domain.ScheduleSlot
	err := repo.InPackageTransaction(context.Background(), testPackageID, func(ctx context.Context, tx store.PackageTx) error {
		var err error
		slots, err = tx.ReplaceSlotsAndPolicy(ctx, testPackageID, store.ScheduleUpdate{
			Recurrence: domain.RecurrenceRecord{
				Type: domain.SchedulingTypeDaily,
				Daily: &domain.Daily{
					Start:     domain.DateOf(start),
					SlotStart: domain.TimeOfDay{Hour: 10},
					SlotEnd:   domain.TimeOfDay{Hour: 11},
					Capacity:  5,
				},
			},
			Policy: domain.CancellationPolicy{Type: domain.PolicyFixedCommitment},
		})
		return err
	})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	require.Equal(t, slotID, slots[0].ID)
	require.Equal(t, 5, slots[0].AvailableSlots)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPackageTx_ReplaceMissingPackage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPackageRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE "class_packages"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.InPackageTransaction(context.Background(), testPackageID, func(ctx context.Context, tx store.PackageTx) error {
		_, err := tx.ReplaceSlotsAndPolicy(ctx, testPackageID, store.ScheduleUpdate{
			Policy: domain.CancellationPolicy{Type: domain.PolicyFixedCommitment},
		})
		return err
	})
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPackageRepo_CreateReplayChecksStoredDefinition(t *testing.T) {
	window := 1
	stored := domain.ClassPackage{
		ID:                   testPackageID,
		VendorID:             "v1",
		Title:                "Pottery",
		PriceCents:           4500,
		Currency:             "EUR",
		TimeZone:             "Europe/Berlin",
		PolicyType:           domain.PolicyFlexibleRescheduling,
		RescheduleDaysBefore: &window,
		SchedulingType:       domain.SchedulingTypeDaily,
		Recurrence: domain.RecurrenceRecord{
			Type: domain.SchedulingTypeDaily,
			Daily: &domain.Daily{
				Start:     domain.Date{Year: 2026, Month: time.January, Day: 10},
				SlotStart: domain.TimeOfDay{Hour: 10},
				SlotEnd:   domain.TimeOfDay{Hour: 11},
				Capacity:  5,
			},
		},
	}
	recurrenceJSON := `{"type":"DAILY","daily":{"recurrence_start":"2026-01-10","slot_start":"10:00","slot_end":"11:00","capacity":5}}`

	tests := []struct {
		name    string
		mutate  func(p *domain.ClassPackage)
		wantErr error
	}{
		{name: "same payload replays", mutate: func(p *domain.ClassPackage) {}},
		{
			name: "different capacity",
			mutate: func(p *domain.ClassPackage) {
				daily := *p.Recurrence.Daily
				daily.Capacity = 6
				p.Recurrence.Daily = &daily
			},
			wantErr: store.ErrIdempotencyConflict,
		},
		{
			name: "different reschedule window",
			mutate: func(p *domain.ClassPackage) {
				other := 30
				p.RescheduleDaysBefore = &other
			},
			wantErr: store.ErrIdempotencyConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPackageRepo(db)

			mock.ExpectBegin()
			mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(`SELECT .* FROM "class_packages"`).
				WillReturnRows(sqlmock.NewRows([]string{
					"id", "vendor_id", "title", "price_cents", "currency", "time_zone",
					"scheduling_type", "cancellation_policy_type", "reschedule_days_before", "recurrence",
				}).AddRow(
					testPackageID.String(), "v1", "Pottery", 4500, "EUR", "Europe/Berlin",
					"DAILY", "FLEXIBLE_RESCHEDULING", 1, []byte(recurrenceJSON),
				))
			if tt.wantErr == nil {
				mock.ExpectQuery(`SELECT .* FROM "schedule_slots"`).
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
				mock.ExpectCommit()
			} else {
				mock.ExpectRollback()
			}

			req := stored
			tt.mutate(&req)
			got, _, err := repo.Create(context.Background(), req, nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				require.Equal(t, testPackageID, got.ID)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
