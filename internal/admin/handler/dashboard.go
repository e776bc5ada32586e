package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"portbuoy/internal/admin/service"
	apperrors "portbuoy/pkg/errors"
	httputil "portbuoy/pkg/http"
	"portbuoy/pkg/identity"
	"portbuoy/pkg/logger"
)

type DashboardHandler struct {
	service service.DashboardService
	log     *logger.Logger
}

func NewDashboardHandler(service service.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		log:     log,
	}
}

func (h *DashboardHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/admin/dashboard", h.Get)
}

func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, err := identity.FromRequest(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	if !user.IsAdmin() {
		if writeErr := httputil.WriteError(w, apperrors.Forbidden("Only admins may view the dashboard")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	dashboard, err := h.service.Build(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, dashboard); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}
