package packages

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"classpkg/backend/internal/domain"
	"classpkg/backend/internal/messaging"
	"classpkg/backend/internal/store"
)

type ValidationError struct {
	msg string
	err error
}

func (e *ValidationError) Error() string {
	return e.msg
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// classifyDomainError passes lifecycle rejections and internal domain faults
// through and turns everything else the domain reports into a ValidationError.
func classifyDomainError(err error) error {
	switch {
	case domain.IsLifecycleError(err),
		errors.Is(err, domain.ErrUnknownPackageStatus),
		errors.Is(err, domain.ErrUnknownMutation):
		return err
	default:
		return &ValidationError{msg: err.Error(), err: err}
	}
}

// EventPublisher is satisfied by *messaging.Publisher.
type EventPublisher interface {
	ScheduleReplaced(ctx context.Context, ev messaging.ScheduleReplacedEvent) error
	PackageDeleted(ctx context.Context, ev messaging.PackageDeletedEvent) error
}

type Service struct {
	repo      store.PackageRepository
	events    EventPublisher
	log       *slog.Logger
	clock     func() time.Time
	defaultTZ string
}

type Option func(*Service)

func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithDefaultTimeZone sets the zone used when a request names none.
func WithDefaultTimeZone(tz string) Option {
	return func(s *Service) {
		if tz = strings.TrimSpace(tz); tz != "" {
			s.defaultTZ = tz
		}
	}
}

func NewService(repo store.PackageRepository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		log:       slog.Default(),
		clock:     time.Now,
		defaultTZ: "UTC",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(slog.String("component", "service.packages"))
	return s
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

func (s *Service) location(tz string) (string, *time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		tz = s.defaultTZ
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", nil, validationError("invalid time_zone")
	}
	return tz, loc, nil
}

type CreateInput struct {
	VendorID       string
	Title          string
	Description    string
	PriceCents     int64
	Currency       string
	TimeZone       string
	Recurrence     domain.RecurrenceSpec
	Policy         domain.CancellationPolicy
	CategoryIDs    []string
	AgeGroupIDs    []string
	TagIDs         []string
	IdempotencyKey string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (domain.ClassPackage, []domain.ScheduleSlot, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.ClassPackage{}, nil, validationError("title is required")
	}
	if in.VendorID == "" {
		return domain.ClassPackage{}, nil, validationError("vendor_id is required")
	}
	if in.PriceCents < 0 {
		return domain.ClassPackage{}, nil, validationError("price must not be negative")
	}
	currency, err := normalizeCurrency(in.Currency)
	if err != nil {
		return domain.ClassPackage{}, nil, err
	}
	if in.Recurrence == nil {
		return domain.ClassPackage{}, nil, validationError("recurrence is required")
	}
	tz, loc, err := s.location(in.TimeZone)
	if err != nil {
		return domain.ClassPackage{}, nil, err
	}

	policy := in.Policy
	if policy.Type == "" {
		policy.Type = domain.PolicyFixedCommitment
	}
	policy, err = domain.ValidateCancellationPolicy(policy)
	if err != nil {
		return domain.ClassPackage{}, nil, classifyDomainError(err)
	}

	pkg := domain.ClassPackage{
		VendorID:             in.VendorID,
		Title:                title,
		Description:          in.Description,
		PriceCents:           in.PriceCents,
		Currency:             currency,
		Status:               domain.PackageStatusDraft,
		PolicyType:           policy.Type,
		RescheduleDaysBefore: policy.RescheduleDaysBefore,
		TimeZone:             tz,
		SchedulingType:       in.Recurrence.SchedulingType(),
		Recurrence:           domain.RecordOf(in.Recurrence),
		CategoryIDs:          in.CategoryIDs,
		AgeGroupIDs:          in.AgeGroupIDs,
		TagIDs:               in.TagIDs,
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if len(key) > 256 {
			return domain.ClassPackage{}, nil, validationError("idempotency_key too long")
		}
		pkg.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("classpkg:create_package:"+in.VendorID+":"+key))

		// Replays are answered from the store without re-checking the
		// schedule against now.
		existing, slots, err := s.repo.Get(ctx, in.VendorID, pkg.ID)
		switch {
		case err == nil:
			if !domain.SameDefinition(existing, pkg) {
				return domain.ClassPackage{}, nil, store.ErrIdempotencyConflict
			}
			return existing, slots, nil
		case !errors.Is(err, store.ErrNotFound):
			return domain.ClassPackage{}, nil, err
		}
	}

	plan, err := domain.PlanCreation(in.Recurrence, policy, s.now(), loc)
	if err != nil {
		return domain.ClassPackage{}, nil, classifyDomainError(err)
	}
	return s.repo.Create(ctx, pkg, plan.Slots)
}

func normalizeCurrency(c string) (string, error) {
	c = strings.ToUpper(strings.TrimSpace(c))
	if len(c) != 3 {
		return "", validationError("currency must be a three-letter code")
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", validationError("currency must be a three-letter code")
		}
	}
	return c, nil
}

// UpdateInput changes the schedule, the cancellation policy, or both. A nil
// field keeps the stored value.
type UpdateInput struct {
	VendorID   string
	PackageID  uuid.UUID
	Recurrence domain.RecurrenceSpec
	Policy     *domain.CancellationPolicy
}

func (s *Service) Update(ctx context.Context, in UpdateInput) (domain.ClassPackage, []domain.ScheduleSlot, error) {
	if in.VendorID == "" {
		return domain.ClassPackage{}, nil, validationError("vendor_id is required")
	}
	if in.PackageID == uuid.Nil {
		return domain.ClassPackage{}, nil, validationError("package_id is required")
	}
	if in.Recurrence == nil && in.Policy == nil {
		return domain.ClassPackage{}, nil, validationError("no changes requested")
	}

	now := s.now()
	var (
		pkg      domain.ClassPackage
		slots    []domain.ScheduleSlot
		replaced bool
	)
	err := s.repo.InPackageTransaction(ctx, in.PackageID, func(ctx context.Context, tx store.PackageTx) error {
		snap, err := tx.GetPackageWithSlotsAndEnrollmentFlag(ctx, in.PackageID)
		if err != nil {
			return err
		}
		if snap.Package.VendorID != in.VendorID {
			return store.ErrNotFound
		}

		plan, err := domain.PlanMutation(snap, domain.PackageMutation{
			Recurrence: in.Recurrence,
			Policy:     in.Policy,
		}, now)
		if err != nil {
			return classifyDomainError(err)
		}

		slots, err = tx.ReplaceSlotsAndPolicy(ctx, in.PackageID, store.ScheduleUpdate{
			ReplaceSlots: plan.ReplaceSlots,
			Slots:        plan.Slots,
			Recurrence:   plan.Recurrence,
			Policy:       plan.Policy,
		})
		if err != nil {
			return err
		}

		pkg = snap.Package
		pkg.PolicyType = plan.Policy.Type
		pkg.RescheduleDaysBefore = plan.Policy.RescheduleDaysBefore
		pkg.SchedulingType = plan.Recurrence.Type
		pkg.Recurrence = plan.Recurrence
		pkg.UpdatedAt = now
		replaced = plan.ReplaceSlots
		return nil
	})
	if err != nil {
		return domain.ClassPackage{}, nil, err
	}

	if replaced {
		s.publishScheduleReplaced(ctx, pkg, slots, now)
	}
	return pkg, slots, nil
}

func (s *Service) Delete(ctx context.Context, vendorID string, packageID uuid.UUID) error {
	if vendorID == "" {
		return validationError("vendor_id is required")
	}
	if packageID == uuid.Nil {
		return validationError("package_id is required")
	}

	err := s.repo.InPackageTransaction(ctx, packageID, func(ctx context.Context, tx store.PackageTx) error {
		snap, err := tx.GetPackageWithSlotsAndEnrollmentFlag(ctx, packageID)
		if err != nil {
			return err
		}
		if snap.Package.VendorID != vendorID {
			return store.ErrNotFound
		}
		if err := domain.CheckMutation(snap.Package.Status, snap.HasActiveEnrollments, domain.MutationDeletePackage); err != nil {
			return err
		}
		return tx.DeletePackage(ctx, packageID)
	})
	if err != nil {
		return err
	}

	if s.events != nil {
		ev := messaging.PackageDeletedEvent{PackageID: packageID, VendorID: vendorID, OccurredAt: s.now()}
		if err := s.events.PackageDeleted(ctx, ev); err != nil {
			s.log.Warn("package deleted event not published", slog.Any("err", err), slog.String("package_id", packageID.String()))
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, vendorID string, packageID uuid.UUID) (domain.ClassPackage, []domain.ScheduleSlot, error) {
	if vendorID == "" {
		return domain.ClassPackage{}, nil, validationError("vendor_id is required")
	}
	if packageID == uuid.Nil {
		return domain.ClassPackage{}, nil, validationError("package_id is required")
	}
	return s.repo.Get(ctx, vendorID, packageID)
}

type PreviewInput struct {
	TimeZone   string
	Recurrence domain.RecurrenceSpec
}

// PreviewSchedule expands and validates a recurrence without storing it.
func (s *Service) PreviewSchedule(ctx context.Context, in PreviewInput) ([]domain.ScheduleSlot, error) {
	if in.Recurrence == nil {
		return nil, validationError("recurrence is required")
	}
	_, loc, err := s.location(in.TimeZone)
	if err != nil {
		return nil, err
	}
	slots, err := domain.BuildSchedule(in.Recurrence, s.now(), loc)
	if err != nil {
		return nil, classifyDomainError(err)
	}
	return slots, nil
}

func (s *Service) publishScheduleReplaced(ctx context.Context, pkg domain.ClassPackage, slots []domain.ScheduleSlot, now time.Time) {
	if s.events == nil {
		return
	}
	ev := messaging.ScheduleReplacedEvent{
		PackageID:      pkg.ID,
		VendorID:       pkg.VendorID,
		SchedulingType: string(pkg.SchedulingType),
		SlotCount:      len(slots),
		OccurredAt:     now,
	}
	if len(slots) > 0 {
		first := slots[0].StartTime
		last := slots[len(slots)-1].EndTime
		ev.FirstSlotStart = &first
		ev.LastSlotEnd = &last
	}
	if err := s.events.ScheduleReplaced(ctx, ev); err != nil {
		s.log.Warn("schedule replaced event not published", slog.Any("err", err), slog.String("package_id", pkg.ID.String()))
	}
}
