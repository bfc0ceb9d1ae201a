package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultSubjectPrefix = "classpkg"

	subjectScheduleReplaced = "schedule.replaced"
	subjectPackageDeleted   = "package.deleted"
)

// NatsConn is the part of *nats.Conn the publisher needs.
type NatsConn interface {
	IsConnected() bool
	Publish(subj string, data []byte) error
}

type ScheduleReplacedEvent struct {
	PackageID      uuid.UUID  `json:"package_id"`
	VendorID       string     `json:"vendor_id"`
	SchedulingType string     `json:"scheduling_type"`
	SlotCount      int        `json:"slot_count"`
	FirstSlotStart *time.Time `json:"first_slot_start,omitempty"`
	LastSlotEnd    *time.Time `json:"last_slot_end,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

type PackageDeletedEvent struct {
	PackageID  uuid.UUID `json:"package_id"`
	VendorID   string    `json:"vendor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher struct {
	conn   NatsConn
	prefix string
	log    *slog.Logger
}

func NewPublisher(conn NatsConn, prefix string, log *slog.Logger) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{
		conn:   conn,
		prefix: prefix,
		log:    log.With(slog.String("component", "messaging.nats")),
	}
}

func (p *Publisher) ScheduleReplaced(ctx context.Context, ev ScheduleReplacedEvent) error {
	return p.publishJSON(ctx, subjectScheduleReplaced, ev)
}

func (p *Publisher) PackageDeleted(ctx context.Context, ev PackageDeletedEvent) error {
	return p.publishJSON(ctx, subjectPackageDeleted, ev)
}

func (p *Publisher) subject(name string) string {
	return p.prefix + "." + name
}

func (p *Publisher) publishJSON(ctx context.Context, name string, v any) error {
	subject := p.subject(name)
	data, err := json.Marshal(v)
	if err != nil {
		p.log.ErrorContext(ctx, "event marshal failed", slog.Any("err", err), slog.String("subject", subject))
		return err
	}
	return p.publish(ctx, subject, data)
}

func (p *Publisher) publish(ctx context.Context, subject string, data []byte) error {
	if !p.conn.IsConnected() {
		// nats.Conn buffers publishes while reconnecting.
		p.log.WarnContext(ctx, "nats not connected, publish will be buffered", slog.String("subject", subject))
	}
	if err := p.conn.Publish(subject, data); err != nil {
		p.log.ErrorContext(ctx, "nats publish failed", slog.Any("err", err), slog.String("subject", subject))
		return err
	}
	p.log.DebugContext(ctx, "event published", slog.String("subject", subject), slog.Int("bytes", len(data)))
	return nil
}
