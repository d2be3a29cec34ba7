package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"travelops-dispatch/pkg/health"
	"travelops-dispatch/services/credential"
	"travelops-dispatch/services/dispatch"
	"travelops-dispatch/services/recipient"
	"travelops-dispatch/services/schedule"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler struct {
	recipients   *recipient.Service
	materializer *schedule.Service
	worker       *dispatch.Worker
	health       health.HealthService
}

type HandlerParams struct {
	fx.In

	Recipients   *recipient.Service
	Materializer *schedule.Service
	Worker       *dispatch.Worker
	Health       health.HealthService
}

func NewHandler(p HandlerParams) *Handler {
	return &Handler{
		recipients:   p.Recipients,
		materializer: p.Materializer,
		worker:       p.Worker,
		health:       p.Health,
	}
}

// ProvideEngine builds the gin engine with every route this service exposes.
func ProvideEngine(h *Handler) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", h.health.Liveness)
	engine.GET("/readyz", h.health.Readiness)

	v1 := engine.Group("/v1")
	v1.POST("/groups/:group_id/enrollments", h.Enroll)
	v1.GET("/tenants/:kind/:id/messages", h.ListMessages)

	ops := engine.Group("/ops")
	ops.POST("/dispatch/run", h.RunCycle)

	return engine
}

type enrollRequest struct {
	RecipientKind string `json:"recipient_kind" binding:"required"`
	RecipientID   string `json:"recipient_id" binding:"required"`
	TenantKind    string `json:"tenant_kind" binding:"required"`
	TenantID      string `json:"tenant_id" binding:"required"`
}

// Enroll is the trigger entry point: a recipient joined a group, so its
// funnels are materialized into tasks synchronously. A store failure is the
// caller's problem; it must know its side effect did not complete.
func (h *Handler) Enroll(c *gin.Context) {
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev, err := h.recipients.Trigger(
		c.Request.Context(),
		recipient.Kind(req.RecipientKind),
		req.RecipientID,
		credential.TenantRef{Kind: credential.TenantKind(req.TenantKind), ID: req.TenantID},
		c.Param("group_id"),
	)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipient not found"})
			return
		}
		zap.L().Error("recipient lookup failed",
			zap.String("recipient_id", req.RecipientID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := h.materializer.Materialize(c.Request.Context(), ev)
	if err != nil {
		zap.L().Error("materialization failed",
			zap.String("group_id", ev.GroupID),
			zap.String("recipient_id", ev.RecipientID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RunCycle triggers one dispatch cycle outside the timer. Safe to call while
// the scheduler is running.
func (h *Handler) RunCycle(c *gin.Context) {
	stats, err := h.worker.RunCycle(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	tasks, err := h.materializer.ListByTenant(
		c.Request.Context(),
		credential.TenantKind(c.Param("kind")),
		c.Param("id"),
		limit,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": tasks})
}
