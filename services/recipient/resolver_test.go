package recipient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"travelops-dispatch/services/credential"
	"travelops-dispatch/services/funnel"
	"travelops-dispatch/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestResolvePhoneNormalized(t *testing.T) {
	ev := &TriggerEvent{Phone: "010-1234-5678"}
	addr, ok := Resolve(ev, funnel.ChannelSMS)
	require.True(t, ok)
	require.Equal(t, "01012345678", addr)
}

func TestResolveMissingAddresses(t *testing.T) {
	ev := &TriggerEvent{Phone: "---", Email: "   "}

	_, ok := Resolve(ev, funnel.ChannelSMS)
	require.False(t, ok)

	_, ok = Resolve(ev, funnel.ChannelEmail)
	require.False(t, ok)
}

func TestResolveEmailTrimmed(t *testing.T) {
	ev := &TriggerEvent{Email: " hana@example.com "}
	addr, ok := Resolve(ev, funnel.ChannelEmail)
	require.True(t, ok)
	require.Equal(t, "hana@example.com", addr)
}

func TestTriggerSnapshotsLead(t *testing.T) {
	db := testutil.NewTestDB(t, &Lead{}, &Traveler{})
	svc := NewService(ServiceParams{DB: db})

	require.NoError(t, db.Create(&Lead{
		ID: "lead-1", Name: "Hana Kim", Phone: "010-1234-5678",
		Email: "hana@example.com", Product: "Jeju Package", BookingLink: "https://b.example/1",
	}).Error)

	ev, err := svc.Trigger(context.Background(), KindLead, "lead-1",
		credential.TenantRef{Kind: credential.TenantPartner, ID: "p-1"}, "g-1")
	require.NoError(t, err)
	require.Equal(t, "Hana Kim", ev.Name)
	require.Equal(t, "Jeju Package", ev.Product)
	require.Equal(t, "https://b.example/1", ev.BookingLink)
	require.False(t, ev.OccurredAt.IsZero())
}

func TestTriggerSnapshotsTraveler(t *testing.T) {
	db := testutil.NewTestDB(t, &Lead{}, &Traveler{})
	svc := NewService(ServiceParams{DB: db})

	require.NoError(t, db.Create(&Traveler{
		ID: "u-1", Name: "Minsu Park", Phone: "010-9999-0000", Email: "minsu@example.com",
	}).Error)

	ev, err := svc.Trigger(context.Background(), KindUser, "u-1",
		credential.TenantRef{Kind: credential.TenantAdmin, ID: "ops"}, "g-2")
	require.NoError(t, err)
	require.Equal(t, "Minsu Park", ev.Name)
	require.Equal(t, KindUser, ev.RecipientKind)
	require.Empty(t, ev.Product)
}

func TestTriggerUnknownRecipient(t *testing.T) {
	db := testutil.NewTestDB(t, &Lead{}, &Traveler{})
	svc := NewService(ServiceParams{DB: db})

	_, err := svc.Trigger(context.Background(), KindLead, "ghost",
		credential.TenantRef{Kind: credential.TenantPartner, ID: "p-1"}, "g-1")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
