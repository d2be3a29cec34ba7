package credential

import (
	"context"
	"errors"

	"travelops-dispatch/services/funnel"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

// ErrUnavailable means the tenant has no active credentials for the channel.
// It is a configuration gap, not a transient failure: callers must not retry.
var ErrUnavailable = errors.New("messaging credentials unavailable")

type Resolver struct {
	db *gorm.DB
}

type ResolverParams struct {
	fx.In

	DB *gorm.DB
}

func NewResolver(p ResolverParams) *Resolver {
	return &Resolver{db: p.DB}
}

// Resolve fetches the provider credentials for a tenant and channel. Partner
// tenants resolve their tier first; the tier maps to the owner-kind
// discriminator of the credential row.
func (r *Resolver) Resolve(ctx context.Context, ref TenantRef, channel funnel.Channel) (*MessagingCredential, error) {
	ownerKind := OwnerAdmin
	ownerID := ref.ID

	if ref.Kind == TenantPartner {
		var profile PartnerProfile
		if err := r.db.WithContext(ctx).
			Where("profile_id = ?", ref.ID).
			First(&profile).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUnavailable
			}
			return nil, err
		}

		if profile.Tier == TierBranchManager {
			ownerKind = OwnerBranch
		} else {
			ownerKind = OwnerAgent
		}
	}

	var cred MessagingCredential
	if err := r.db.WithContext(ctx).
		Where("owner_kind = ? AND owner_id = ? AND channel = ?", ownerKind, ownerID, channel).
		First(&cred).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnavailable
		}
		return nil, err
	}

	if !cred.Active {
		return nil, ErrUnavailable
	}

	return &cred, nil
}
