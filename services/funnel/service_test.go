package funnel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"travelops-dispatch/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t, &Funnel{}, &FunnelStage{}, &GroupFunnel{})
	return NewService(ServiceParams{DB: db}), db
}

func TestBoundFunnelsFiltersInactiveAndUnbound(t *testing.T) {
	svc, db := newTestService(t)

	require.NoError(t, db.Create(&Funnel{ID: "f-active", Name: "Active", Channel: ChannelSMS, Active: true}).Error)
	require.NoError(t, db.Create(&Funnel{ID: "f-inactive", Name: "Inactive", Channel: ChannelSMS, Active: false}).Error)
	require.NoError(t, db.Create(&Funnel{ID: "f-other-group", Name: "Other", Channel: ChannelSMS, Active: true}).Error)
	require.NoError(t, db.Create(&GroupFunnel{GroupID: "g-1", FunnelID: "f-active"}).Error)
	require.NoError(t, db.Create(&GroupFunnel{GroupID: "g-1", FunnelID: "f-inactive"}).Error)
	require.NoError(t, db.Create(&GroupFunnel{GroupID: "g-2", FunnelID: "f-other-group"}).Error)

	funnels, err := svc.BoundFunnels(context.Background(), "g-1")
	require.NoError(t, err)
	require.Len(t, funnels, 1)
	require.Equal(t, "f-active", funnels[0].ID)
}

func TestBoundFunnelsStagesInSendOrder(t *testing.T) {
	svc, db := newTestService(t)

	require.NoError(t, db.Create(&Funnel{ID: "f-1", Name: "F", Channel: ChannelSMS, Active: true}).Error)
	require.NoError(t, db.Create(&FunnelStage{ID: "s-c", FunnelID: "f-1", StageNo: 3, SortOrder: 1, Body: "c"}).Error)
	require.NoError(t, db.Create(&FunnelStage{ID: "s-a", FunnelID: "f-1", StageNo: 1, SortOrder: 0, Body: "a"}).Error)
	require.NoError(t, db.Create(&FunnelStage{ID: "s-b", FunnelID: "f-1", StageNo: 2, SortOrder: 0, Body: "b"}).Error)
	require.NoError(t, db.Create(&GroupFunnel{GroupID: "g-1", FunnelID: "f-1"}).Error)

	funnels, err := svc.BoundFunnels(context.Background(), "g-1")
	require.NoError(t, err)
	require.Len(t, funnels, 1)
	require.Len(t, funnels[0].Stages, 3)

	ids := []string{funnels[0].Stages[0].ID, funnels[0].Stages[1].ID, funnels[0].Stages[2].ID}
	require.Equal(t, []string{"s-a", "s-b", "s-c"}, ids)
}

func TestByChannelPartition(t *testing.T) {
	funnels := []Funnel{
		{ID: "f-1", Channel: ChannelSMS},
		{ID: "f-2", Channel: ChannelEmail},
		{ID: "f-3", Channel: ChannelSMS},
	}

	byCh := ByChannel(funnels)
	require.Len(t, byCh[ChannelSMS], 2)
	require.Len(t, byCh[ChannelEmail], 1)
}
