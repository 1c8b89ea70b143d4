package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bnema/voicepool/internal/application"
	"github.com/bnema/voicepool/internal/domain"
	"github.com/gin-gonic/gin"
)

type StatusProvider interface {
	Status() domain.PoolStatus
}

type ConfigEditor interface {
	Get(ctx context.Context, scope domain.ConfigScope, tenant domain.TenantID) (domain.ConfigDocument, error)
	SetField(ctx context.Context, cmd application.SetConfigFieldCommand) (domain.ConfigDocument, error)
	UnsetField(ctx context.Context, cmd application.UnsetConfigFieldCommand) (domain.ConfigDocument, error)
}

type PoolHandler struct {
	status StatusProvider
	config ConfigEditor
}

type healthResponse struct {
	Status string           `json:"status"`
	State  domain.PoolState `json:"state"`
	Ready  int              `json:"ready"`
}

type listSessionsResponse struct {
	Items []domain.SessionStatus `json:"items"`
	Total int                    `json:"total"`
}

type configResponse struct {
	Collection string                `json:"collection"`
	Kind       domain.ConfigKind     `json:"kind"`
	Tenant     domain.TenantID       `json:"tenant"`
	Document   domain.ConfigDocument `json:"document"`
}

type setFieldRequest struct {
	Value any `json:"value"`
}

func NewPoolHandler(status StatusProvider, config ConfigEditor) *PoolHandler {
	return &PoolHandler{status: status, config: config}
}

func (h *PoolHandler) Health(c *gin.Context) {
	status := h.status.Status()
	code := http.StatusOK
	label := "ok"
	if status.State == domain.PoolStateTerminating || len(status.Sessions) == 0 {
		code = http.StatusServiceUnavailable
		label = "unavailable"
	}
	c.JSON(code, healthResponse{Status: label, State: status.State, Ready: status.ReadyCount()})
}

func (h *PoolHandler) ListSessions(c *gin.Context) {
	status := h.status.Status()
	c.JSON(http.StatusOK, listSessionsResponse{Items: status.Sessions, Total: len(status.Sessions)})
}

func (h *PoolHandler) PoolStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.status.Status())
}

func (h *PoolHandler) GetConfig(c *gin.Context) {
	scope, tenant, ok := parseConfigPath(c)
	if !ok {
		return
	}

	doc, err := h.config.Get(c.Request.Context(), scope, tenant)
	if err != nil {
		writeConfigError(c, err)
		return
	}
	c.JSON(http.StatusOK, configResponse{Collection: scope.Collection, Kind: scope.Kind, Tenant: tenant, Document: doc})
}

func (h *PoolHandler) SetConfigField(c *gin.Context) {
	scope, tenant, ok := parseConfigPath(c)
	if !ok {
		return
	}

	var req setFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	doc, err := h.config.SetField(c.Request.Context(), application.SetConfigFieldCommand{
		Scope:  scope,
		Tenant: tenant,
		Field:  c.Param("field"),
		Value:  req.Value,
	})
	if err != nil {
		writeConfigError(c, err)
		return
	}
	c.JSON(http.StatusOK, configResponse{Collection: scope.Collection, Kind: scope.Kind, Tenant: tenant, Document: doc})
}

func (h *PoolHandler) UnsetConfigField(c *gin.Context) {
	scope, tenant, ok := parseConfigPath(c)
	if !ok {
		return
	}

	doc, err := h.config.UnsetField(c.Request.Context(), application.UnsetConfigFieldCommand{
		Scope:  scope,
		Tenant: tenant,
		Field:  c.Param("field"),
	})
	if err != nil {
		writeConfigError(c, err)
		return
	}
	c.JSON(http.StatusOK, configResponse{Collection: scope.Collection, Kind: scope.Kind, Tenant: tenant, Document: doc})
}

func parseConfigPath(c *gin.Context) (domain.ConfigScope, domain.TenantID, bool) {
	scope := domain.ConfigScope{
		Collection: strings.TrimSpace(c.Param("collection")),
		Kind:       domain.ConfigKind(strings.TrimSpace(c.Param("kind"))),
	}
	if err := scope.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return domain.ConfigScope{}, 0, false
	}

	tenant, err := domain.ParseTenantID(c.Param("tenant"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return domain.ConfigScope{}, 0, false
	}
	return scope, tenant, true
}

func writeConfigError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidScope), errors.Is(err, application.ErrEmptyField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "config store unavailable"})
	}
}
