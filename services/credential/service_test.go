package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"travelops-dispatch/services/funnel"
	"travelops-dispatch/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestResolver(t *testing.T) (*Resolver, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t, &PartnerProfile{}, &MessagingCredential{})
	return NewResolver(ResolverParams{DB: db}), db
}

func seedProfile(t *testing.T, db *gorm.DB, id, tier string) {
	t.Helper()
	require.NoError(t, db.Create(&PartnerProfile{ID: id, Name: "Profile " + id, Tier: tier}).Error)
}

func seedCredential(t *testing.T, db *gorm.DB, kind OwnerKind, ownerID string, channel funnel.Channel, active bool) {
	t.Helper()
	require.NoError(t, db.Create(&MessagingCredential{
		ID:        string(kind) + "-" + ownerID + "-" + string(channel),
		OwnerKind: kind,
		OwnerID:   ownerID,
		Channel:   channel,
		APIKey:    "key-" + ownerID,
		AccountID: "acct-" + ownerID,
		Sender:    "0212345678",
		Active:    active,
	}).Error)
}

func TestResolveBranchManagerUsesBranchCredentials(t *testing.T) {
	r, db := newTestResolver(t)
	seedProfile(t, db, "p-1", TierBranchManager)
	seedCredential(t, db, OwnerBranch, "p-1", funnel.ChannelSMS, true)
	seedCredential(t, db, OwnerAgent, "p-1", funnel.ChannelSMS, true)

	cred, err := r.Resolve(context.Background(), TenantRef{Kind: TenantPartner, ID: "p-1"}, funnel.ChannelSMS)
	require.NoError(t, err)
	require.Equal(t, OwnerBranch, cred.OwnerKind)
}

func TestResolveAgentTierUsesAgentCredentials(t *testing.T) {
	r, db := newTestResolver(t)
	seedProfile(t, db, "p-2", TierAgent)
	seedCredential(t, db, OwnerAgent, "p-2", funnel.ChannelSMS, true)

	cred, err := r.Resolve(context.Background(), TenantRef{Kind: TenantPartner, ID: "p-2"}, funnel.ChannelSMS)
	require.NoError(t, err)
	require.Equal(t, OwnerAgent, cred.OwnerKind)
	require.Equal(t, "key-p-2", cred.APIKey)
}

func TestResolveAdminSkipsProfileLookup(t *testing.T) {
	r, db := newTestResolver(t)
	seedCredential(t, db, OwnerAdmin, "ops", funnel.ChannelEmail, true)

	cred, err := r.Resolve(context.Background(), TenantRef{Kind: TenantAdmin, ID: "ops"}, funnel.ChannelEmail)
	require.NoError(t, err)
	require.Equal(t, OwnerAdmin, cred.OwnerKind)
}

func TestResolveInactiveCredentialUnavailable(t *testing.T) {
	r, db := newTestResolver(t)
	seedProfile(t, db, "p-3", TierAgent)
	seedCredential(t, db, OwnerAgent, "p-3", funnel.ChannelSMS, false)

	_, err := r.Resolve(context.Background(), TenantRef{Kind: TenantPartner, ID: "p-3"}, funnel.ChannelSMS)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestResolveMissingRowsUnavailable(t *testing.T) {
	r, db := newTestResolver(t)

	// no profile at all
	_, err := r.Resolve(context.Background(), TenantRef{Kind: TenantPartner, ID: "ghost"}, funnel.ChannelSMS)
	require.ErrorIs(t, err, ErrUnavailable)

	// profile exists, no credential row for the channel
	seedProfile(t, db, "p-4", TierAgent)
	seedCredential(t, db, OwnerAgent, "p-4", funnel.ChannelEmail, true)
	_, err = r.Resolve(context.Background(), TenantRef{Kind: TenantPartner, ID: "p-4"}, funnel.ChannelSMS)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestCycleCacheMemoizesLookups(t *testing.T) {
	calls := 0
	cache := &CycleCache{
		resolve: func(ctx context.Context, ref TenantRef, channel funnel.Channel) (*MessagingCredential, error) {
			calls++
			return &MessagingCredential{ID: "c-1", OwnerID: ref.ID}, nil
		},
		entries: make(map[cacheKey]cacheEntry),
	}

	ref := TenantRef{Kind: TenantPartner, ID: "p-1"}
	for i := 0; i < 5; i++ {
		cred, err := cache.Resolve(context.Background(), ref, funnel.ChannelSMS)
		require.NoError(t, err)
		require.Equal(t, "c-1", cred.ID)
	}
	require.Equal(t, 1, calls)

	// distinct channel is a distinct key
	_, err := cache.Resolve(context.Background(), ref, funnel.ChannelEmail)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestCycleCacheMemoizesUnavailability(t *testing.T) {
	calls := 0
	cache := &CycleCache{
		resolve: func(ctx context.Context, ref TenantRef, channel funnel.Channel) (*MessagingCredential, error) {
			calls++
			return nil, ErrUnavailable
		},
		entries: make(map[cacheKey]cacheEntry),
	}

	ref := TenantRef{Kind: TenantAdmin, ID: "ops"}
	for i := 0; i < 3; i++ {
		_, err := cache.Resolve(context.Background(), ref, funnel.ChannelSMS)
		require.True(t, errors.Is(err, ErrUnavailable))
	}
	require.Equal(t, 1, calls)
}
