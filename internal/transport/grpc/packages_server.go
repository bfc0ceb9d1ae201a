package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"classpkg/backend/internal/domain"
	"classpkg/backend/internal/service/packages"
	"classpkg/backend/internal/store"
)

type PackagesServer struct {
	UnimplementedClassPackagesServiceServer

	svc packagesService
	log *slog.Logger
}

type packagesService interface {
	Create(ctx context.Context, in packages.CreateInput) (domain.ClassPackage, []domain.ScheduleSlot, error)
	Update(ctx context.Context, in packages.UpdateInput) (domain.ClassPackage, []domain.ScheduleSlot, error)
	Delete(ctx context.Context, vendorID string, packageID uuid.UUID) error
	Get(ctx context.Context, vendorID string, packageID uuid.UUID) (domain.ClassPackage, []domain.ScheduleSlot, error)
	PreviewSchedule(ctx context.Context, in packages.PreviewInput) ([]domain.ScheduleSlot, error)
}

func NewPackagesServer(svc packagesService, log *slog.Logger) *PackagesServer {
	if log == nil {
		log = slog.Default()
	}
	return &PackagesServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.packages")),
	}
}

func (s *PackagesServer) CreatePackage(ctx context.Context, req *CreatePackageRequest) (*CreatePackageResponse, error) {
	log := s.log.With(slog.String("rpc", "CreatePackage"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.Recurrence == nil {
		log.Warn("invalid request", slog.String("reason", "missing_recurrence"), slog.String("vendor_id", req.VendorID))
		return nil, status.Error(codes.InvalidArgument, "recurrence is required")
	}
	spec, err := fromWireRecurrence(req.Recurrence)
	if err != nil {
		log.Warn("invalid request", slog.Any("err", err), slog.String("vendor_id", req.VendorID))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	in := packages.CreateInput{
		VendorID:       req.VendorID,
		Title:          req.Title,
		Description:    req.Description,
		PriceCents:     req.PriceCents,
		Currency:       req.Currency,
		TimeZone:       req.TimeZone,
		Recurrence:     spec,
		CategoryIDs:    req.CategoryIDs,
		AgeGroupIDs:    req.AgeGroupIDs,
		TagIDs:         req.TagIDs,
		IdempotencyKey: idempotencyKey(ctx),
	}
	if req.CancellationPolicy != nil {
		in.Policy = fromWirePolicy(req.CancellationPolicy)
	}

	pkg, slots, err := s.svc.Create(ctx, in)
	if err != nil {
		if errors.Is(err, store.ErrIdempotencyConflict) {
			log.Info("package create idempotency conflict", slog.String("vendor_id", req.VendorID))
			return nil, status.Error(codes.FailedPrecondition, "This request key was already used for a different package. Try again.")
		}
		return nil, s.statusFromError(log, "package create failed", err, slog.String("vendor_id", req.VendorID))
	}

	log.Info(
		"package created",
		slog.String("package_id", pkg.ID.String()),
		slog.String("vendor_id", pkg.VendorID),
		slog.String("scheduling_type", string(pkg.SchedulingType)),
		slog.Int("slot_count", len(slots)),
	)

	return &CreatePackageResponse{Package: toWirePackage(pkg, slots)}, nil
}

func (s *PackagesServer) UpdatePackage(ctx context.Context, req *UpdatePackageRequest) (*UpdatePackageResponse, error) {
	log := s.log.With(slog.String("rpc", "UpdatePackage"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := uuid.Parse(req.PackageID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_package_id"), slog.String("vendor_id", req.VendorID))
		return nil, status.Error(codes.InvalidArgument, "package_id must be a UUID")
	}

	in := packages.UpdateInput{VendorID: req.VendorID, PackageID: id}
	if req.Recurrence != nil {
		spec, err := fromWireRecurrence(req.Recurrence)
		if err != nil {
			log.Warn("invalid request", slog.Any("err", err), slog.String("package_id", req.PackageID))
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		in.Recurrence = spec
	}
	if req.CancellationPolicy != nil {
		policy := fromWirePolicy(req.CancellationPolicy)
		in.Policy = &policy
	}

	pkg, slots, err := s.svc.Update(ctx, in)
	if err != nil {
		return nil, s.statusFromError(log, "package update failed", err,
			slog.String("vendor_id", req.VendorID),
			slog.String("package_id", req.PackageID),
		)
	}

	log.Info(
		"package updated",
		slog.String("package_id", pkg.ID.String()),
		slog.String("vendor_id", pkg.VendorID),
		slog.Bool("schedule_changed", req.Recurrence != nil),
		slog.Bool("policy_changed", req.CancellationPolicy != nil),
	)

	return &UpdatePackageResponse{Package: toWirePackage(pkg, slots)}, nil
}

func (s *PackagesServer) DeletePackage(ctx context.Context, req *DeletePackageRequest) (*DeletePackageResponse, error) {
	log := s.log.With(slog.String("rpc", "DeletePackage"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := uuid.Parse(req.PackageID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_package_id"), slog.String("vendor_id", req.VendorID))
		return nil, status.Error(codes.InvalidArgument, "package_id must be a UUID")
	}

	if err := s.svc.Delete(ctx, req.VendorID, id); err != nil {
		return nil, s.statusFromError(log, "package delete failed", err,
			slog.String("vendor_id", req.VendorID),
			slog.String("package_id", req.PackageID),
		)
	}

	log.Info("package deleted", slog.String("package_id", req.PackageID), slog.String("vendor_id", req.VendorID))
	return &DeletePackageResponse{}, nil
}

func (s *PackagesServer) GetPackage(ctx context.Context, req *GetPackageRequest) (*GetPackageResponse, error) {
	log := s.log.With(slog.String("rpc", "GetPackage"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := uuid.Parse(req.PackageID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_package_id"), slog.String("vendor_id", req.VendorID))
		return nil, status.Error(codes.InvalidArgument, "package_id must be a UUID")
	}

	pkg, slots, err := s.svc.Get(ctx, req.VendorID, id)
	if err != nil {
		return nil, s.statusFromError(log, "package get failed", err,
			slog.String("vendor_id", req.VendorID),
			slog.String("package_id", req.PackageID),
		)
	}

	log.Debug("package fetched", slog.String("package_id", req.PackageID), slog.Int("slot_count", len(slots)))
	return &GetPackageResponse{Package: toWirePackage(pkg, slots)}, nil
}

func (s *PackagesServer) PreviewSchedule(ctx context.Context, req *PreviewScheduleRequest) (*PreviewScheduleResponse, error) {
	log := s.log.With(slog.String("rpc", "PreviewSchedule"))

	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.Recurrence == nil {
		log.Warn("invalid request", slog.String("reason", "missing_recurrence"))
		return nil, status.Error(codes.InvalidArgument, "recurrence is required")
	}
	spec, err := fromWireRecurrence(req.Recurrence)
	if err != nil {
		log.Warn("invalid request", slog.Any("err", err))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	slots, err := s.svc.PreviewSchedule(ctx, packages.PreviewInput{TimeZone: req.TimeZone, Recurrence: spec})
	if err != nil {
		return nil, s.statusFromError(log, "schedule preview failed", err)
	}

	log.Debug("schedule previewed", slog.String("scheduling_type", string(spec.SchedulingType())), slog.Int("slot_count", len(slots)))
	return &PreviewScheduleResponse{Slots: toWireSlots(slots)}, nil
}

// statusFromError logs err at a level matching its cause and converts it to a
// gRPC status.
func (s *PackagesServer) statusFromError(log *slog.Logger, msg string, err error, attrs ...any) error {
	args := append([]any{slog.Any("err", err)}, attrs...)

	var vErr *packages.ValidationError
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", args...)
		return status.Error(codes.InvalidArgument, vErr.Error())
	case domain.IsLifecycleError(err):
		log.Info("package mutation refused", args...)
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, store.ErrNotFound):
		log.Info("package not found", args...)
		return status.Error(codes.NotFound, "package not found")
	case errors.Is(err, store.ErrSlotOverlap):
		log.Info("schedule conflict", args...)
		return status.Error(codes.Aborted, "The schedule conflicts with slots written concurrently. Try again.")
	default:
		log.Error(msg, args...)
		return status.Error(codes.Internal, "internal error")
	}
}

func idempotencyKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("idempotency-key")
	if len(values) == 0 {
		values = md.Get("x-idempotency-key")
	}
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
