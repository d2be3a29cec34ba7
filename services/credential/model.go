package credential

import (
	"time"

	"travelops-dispatch/services/funnel"
)

type TenantKind string

const (
	TenantPartner TenantKind = "partner"
	TenantAdmin   TenantKind = "admin"
)

// TenantRef identifies the owner of messaging credentials: a partner profile
// or an administrator.
type TenantRef struct {
	Kind TenantKind
	ID   string
}

// Partner tiers. Branch managers and individual agents keep separate
// credential records; the tier decides which record is fetched, not which
// code path runs.
const (
	TierBranchManager = "branch_manager"
	TierAgent         = "agent"
)

type PartnerProfile struct {
	ID        string    `gorm:"column:profile_id;primaryKey;type:char(26)"`
	Name      string    `gorm:"column:name;type:varchar(255);not null"`
	Tier      string    `gorm:"column:tier;type:varchar(50);not null;default:'agent'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

type OwnerKind string

const (
	OwnerBranch OwnerKind = "branch"
	OwnerAgent  OwnerKind = "agent"
	OwnerAdmin  OwnerKind = "admin"
)

// MessagingCredential holds a tenant's provider credentials for one channel.
// A single table keyed by (owner_kind, owner_id) replaces the legacy split
// between branch-manager and agent configuration tables.
type MessagingCredential struct {
	ID        string         `gorm:"column:credential_id;primaryKey;type:char(26)"`
	OwnerKind OwnerKind      `gorm:"column:owner_kind;type:varchar(20);not null;uniqueIndex:idx_credential_owner_channel"`
	OwnerID   string         `gorm:"column:owner_id;not null;uniqueIndex:idx_credential_owner_channel"`
	Channel   funnel.Channel `gorm:"column:channel;type:varchar(20);not null;uniqueIndex:idx_credential_owner_channel"`
	APIKey    string         `gorm:"column:api_key;not null"`
	AccountID string         `gorm:"column:account_id;not null"`
	Sender    string         `gorm:"column:sender;not null"`
	Active    bool           `gorm:"column:active;default:true"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
