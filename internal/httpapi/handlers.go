package httpapi

import (
	"net/http"
	"time"

	"callsync-server/internal/ingest"
	"callsync-server/internal/query"
	"callsync-server/internal/records"
	"callsync-server/internal/stats"
	"callsync-server/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
// Store failures are logged with detail and surfaced as generic messages.

type Handlers struct {
	Ingest *ingest.Service
	Query  *query.Service
	Stats  *stats.Service
}

// --- Ingest ---

// CreateCall handles POST /calls: one strictly validated record.
func (h Handlers) CreateCall(c *gin.Context) {
	if h.Ingest == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "ingest not configured"})
		return
	}
	var in records.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	id, err := h.Ingest.SubmitOne(c.Request.Context(), in)
	if err != nil {
		if records.IsValidation(err) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.FromGin(c).Error("call insert failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to save call record"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "call record saved", "id": id})
}

type batchRequest struct {
	Calls []records.Input `json:"calls"`
}

// CreateCallBatch handles POST /calls/batch: an offline-sync replay.
// Per-row failures reduce savedCount and raise rejectedCount; only a store
// transport failure fails the request.
func (h Handlers) CreateCallBatch(c *gin.Context) {
	if h.Ingest == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "ingest not configured"})
		return
	}
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.Ingest.SubmitBatch(c.Request.Context(), req.Calls)
	if err != nil {
		if records.IsValidation(err) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.FromGin(c).Error("batch insert failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to save call records"})
		return
	}
	if res.Rejected > 0 {
		logger.FromGin(c).Warn("batch rows rejected", "persisted", res.Persisted, "rejected", res.Rejected)
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "savedCount": res.Persisted, "rejectedCount": res.Rejected})
}

// --- Query ---

// ListCalls handles GET /calls with filtering and pagination.
func (h Handlers) ListCalls(c *gin.Context) {
	if h.Query == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "query not configured"})
		return
	}
	req, err := query.ParseRequest(query.RawQuery{
		DeviceID:     c.Query("deviceId"),
		EmployeeName: c.Query("employeeName"),
		CallType:     c.Query("callType"),
		PhoneNumber:  c.Query("phoneNumber"),
		From:         c.Query("timestampFrom"),
		To:           c.Query("timestampTo"),
		Page:         c.Query("page"),
		Limit:        c.Query("limit"),
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.Query.List(c.Request.Context(), req)
	if err != nil {
		logger.FromGin(c).Error("call list failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to list call records"})
		return
	}
	c.JSON(http.StatusOK, page)
}

// --- Aggregation ---

// GetStats handles GET /stats.
func (h Handlers) GetStats(c *gin.Context) {
	if h.Stats == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "stats not configured"})
		return
	}
	out, err := h.Stats.Overview(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("stats aggregation failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetEmployees handles GET /employees.
func (h Handlers) GetEmployees(c *gin.Context) {
	if h.Stats == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "stats not configured"})
		return
	}
	out, err := h.Stats.Roster(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("roster aggregation failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to list employees"})
		return
	}
	if out == nil {
		out = []stats.RosterEntry{}
	}
	c.JSON(http.StatusOK, out)
}

// --- Health ---

// Health is the only route outside the auth gate.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)})
}
