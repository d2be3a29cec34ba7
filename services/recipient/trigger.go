package recipient

import (
	"context"
	"time"

	"travelops-dispatch/services/credential"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// TriggerEvent is the moment a recipient becomes eligible for a group's
// funnels. It snapshots the contact fields known at trigger time; later CRM
// edits do not affect already-materialized tasks.
type TriggerEvent struct {
	RecipientKind Kind
	RecipientID   string
	Tenant        credential.TenantRef
	GroupID       string
	OccurredAt    time.Time

	Name        string
	Phone       string
	Email       string
	Product     string
	BookingLink string
}

type Service struct {
	db *gorm.DB
}

type ServiceParams struct {
	fx.In

	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{db: p.DB}
}

// Trigger builds a TriggerEvent for a recipient entering a group.
func (s *Service) Trigger(ctx context.Context, kind Kind, recipientID string, tenant credential.TenantRef, groupID string) (*TriggerEvent, error) {
	ev := &TriggerEvent{
		RecipientKind: kind,
		RecipientID:   recipientID,
		Tenant:        tenant,
		GroupID:       groupID,
		OccurredAt:    time.Now(),
	}

	switch kind {
	case KindUser:
		var t Traveler
		if err := s.db.WithContext(ctx).Where("traveler_id = ?", recipientID).First(&t).Error; err != nil {
			return nil, err
		}
		ev.Name = t.Name
		ev.Phone = t.Phone
		ev.Email = t.Email
	default:
		var l Lead
		if err := s.db.WithContext(ctx).Where("lead_id = ?", recipientID).First(&l).Error; err != nil {
			return nil, err
		}
		ev.Name = l.Name
		ev.Phone = l.Phone
		ev.Email = l.Email
		ev.Product = l.Product
		ev.BookingLink = l.BookingLink
	}

	return ev, nil
}
