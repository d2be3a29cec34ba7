package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"travelops-dispatch/pkg/config"
	"travelops-dispatch/pkg/health"
	"travelops-dispatch/services/audit"
	"travelops-dispatch/services/credential"
	"travelops-dispatch/services/dispatch"
	"travelops-dispatch/services/funnel"
	"travelops-dispatch/services/provider"
	"travelops-dispatch/services/recipient"
	"travelops-dispatch/services/schedule"
	"travelops-dispatch/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
	gin.SetMode(gin.TestMode)
}

func newTestEngine(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	db := testutil.NewTestDB(t,
		&recipient.Lead{}, &recipient.Traveler{},
		&credential.PartnerProfile{}, &credential.MessagingCredential{},
		&funnel.Funnel{}, &funnel.FunnelStage{}, &funnel.GroupFunnel{},
		&schedule.Task{}, &audit.DeliveryLog{},
	)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Platform.Timezone = "UTC"
	cfg.Dispatch.BatchSize = 100
	cfg.Dispatch.Concurrency = 2
	cfg.Dispatch.MaxAttempts = 3
	cfg.Dispatch.SendTimeout = time.Second
	cfg.Dispatch.DefaultSendTime = "10:00"

	funnels := funnel.NewService(funnel.ServiceParams{DB: db})
	mat := schedule.NewService(schedule.ServiceParams{DB: db, Node: node, Funnels: funnels, Config: cfg})
	worker := dispatch.NewWorker(dispatch.WorkerParams{
		DB:       db,
		Resolver: credential.NewResolver(credential.ResolverParams{DB: db}),
		Senders:  provider.Senders{},
		Recorder: audit.NewRecorder(audit.RecorderParams{DB: db, Node: node}),
		Config:   cfg,
	})

	h := NewHandler(HandlerParams{
		Recipients:   recipient.NewService(recipient.ServiceParams{DB: db}),
		Materializer: mat,
		Worker:       worker,
		Health:       health.ProvideHealth(health.HealthParams{DB: db}),
	})
	return ProvideEngine(h), db
}

func seedGroupWithFunnel(t *testing.T, db *gorm.DB) {
	t.Helper()

	sendTime := "09:00"
	require.NoError(t, db.Create(&funnel.Funnel{ID: "f-1", Name: "Welcome", Channel: funnel.ChannelSMS, Active: true}).Error)
	require.NoError(t, db.Create(&funnel.FunnelStage{ID: "s-1", FunnelID: "f-1", StageNo: 1, DaysAfter: 0, SendTime: &sendTime, Body: "Welcome {name}"}).Error)
	require.NoError(t, db.Create(&funnel.GroupFunnel{GroupID: "g-1", FunnelID: "f-1"}).Error)
	require.NoError(t, db.Create(&recipient.Lead{ID: "lead-1", Name: "Hana Kim", Phone: "010-1234-5678"}).Error)
}

func TestEnrollMaterializesTasks(t *testing.T) {
	engine, db := newTestEngine(t)
	seedGroupWithFunnel(t, db)

	body, _ := json.Marshal(gin.H{
		"recipient_kind": "lead",
		"recipient_id":   "lead-1",
		"tenant_kind":    "partner",
		"tenant_id":      "p-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/groups/g-1/enrollments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var res schedule.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, 1, res.Scheduled)

	var count int64
	require.NoError(t, db.Model(&schedule.Task{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestEnrollValidation(t *testing.T) {
	engine, _ := newTestEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/groups/g-1/enrollments", bytes.NewReader([]byte(`{"recipient_id": "lead-1"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrollUnknownRecipient(t *testing.T) {
	engine, _ := newTestEngine(t)

	body, _ := json.Marshal(gin.H{
		"recipient_kind": "lead",
		"recipient_id":   "ghost",
		"tenant_kind":    "partner",
		"tenant_id":      "p-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/groups/g-1/enrollments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnrollStoreFailureIsNot404(t *testing.T) {
	engine, db := newTestEngine(t)

	// a broken recipient store is an outage, not a missing recipient
	require.NoError(t, db.Migrator().DropTable(&recipient.Lead{}))

	body, _ := json.Marshal(gin.H{
		"recipient_kind": "lead",
		"recipient_id":   "lead-1",
		"tenant_kind":    "partner",
		"tenant_id":      "p-1",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/groups/g-1/enrollments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListMessagesByTenant(t *testing.T) {
	engine, db := newTestEngine(t)

	require.NoError(t, db.Create(&schedule.Task{
		ID: "t-1", FunnelID: "f-1", StageID: "s-1", StageNo: 1, GroupID: "g-1",
		RecipientKind: recipient.KindLead, RecipientID: "lead-1",
		TenantKind: credential.TenantPartner, TenantID: "p-1",
		Channel: funnel.ChannelSMS, Address: "01012345678", Body: "hello",
		ScheduledAt: time.Now(), Active: true,
	}).Error)

	req := httptest.NewRequest(http.MethodGet, "/v1/tenants/partner/p-1/messages", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		Messages []schedule.Task `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Messages, 1)
	require.Equal(t, "t-1", out.Messages[0].ID)

	// other tenants see nothing
	req = httptest.NewRequest(http.MethodGet, "/v1/tenants/partner/p-2/messages", nil)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Empty(t, out.Messages)
}

func TestOpsDispatchRun(t *testing.T) {
	engine, _ := newTestEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/ops/dispatch/run", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stats dispatch.CycleStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, 0, stats.Due)
}

func TestHealthEndpoints(t *testing.T) {
	engine, _ := newTestEngine(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}
