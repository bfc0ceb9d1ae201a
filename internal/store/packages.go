package store

import (
	"context"

	"github.com/google/uuid"

	"classpkg/backend/internal/domain"
)

type PackageRepository interface {
	Create(ctx context.Context, pkg domain.ClassPackage, slots []domain.ScheduleSlot) (domain.ClassPackage, []domain.ScheduleSlot, error)
	Get(ctx context.Context, vendorID string, packageID uuid.UUID) (domain.ClassPackage, []domain.ScheduleSlot, error)

	// InPackageTransaction runs fn with the package locked against concurrent
	// mutations. Everything fn writes commits or rolls back together.
	InPackageTransaction(ctx context.Context, packageID uuid.UUID, fn func(ctx context.Context, tx PackageTx) error) error
}

type PackageTx interface {
	GetPackageWithSlotsAndEnrollmentFlag(ctx context.Context, packageID uuid.UUID) (domain.PackageSnapshot, error)
	ReplaceSlotsAndPolicy(ctx context.Context, packageID uuid.UUID, update ScheduleUpdate) ([]domain.ScheduleSlot, error)
	HasActiveEnrollments(ctx context.Context, packageID uuid.UUID) (bool, error)
	DeletePackage(ctx context.Context, packageID uuid.UUID) error
}

// ScheduleUpdate is written by ReplaceSlotsAndPolicy. Slots is only applied
// when ReplaceSlots is set; the policy is always written.
type ScheduleUpdate struct {
	ReplaceSlots bool
	Slots        []domain.ScheduleSlot
	Recurrence   domain.RecurrenceRecord
	Policy       domain.CancellationPolicy
}
