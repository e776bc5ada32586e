package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"portbuoy/internal/vessels/service"
	apperrors "portbuoy/pkg/errors"
	httputil "portbuoy/pkg/http"
	"portbuoy/pkg/identity"
	"portbuoy/pkg/logger"
	"portbuoy/pkg/model"
)

type VesselHandler struct {
	service service.VesselService
	log     *logger.Logger
}

func NewVesselHandler(service service.VesselService, log *logger.Logger) *VesselHandler {
	return &VesselHandler{
		service: service,
		log:     log,
	}
}

func (h *VesselHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/vessels", h.Create)
	router.GET("/api/v1/vessels", h.GetAll)
}

// Create ingests a vessel schedule signal. Admin only: signals feed the
// congestion scorer and must come from the port authority feed.
func (h *VesselHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, err := identity.FromRequest(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	if !user.IsAdmin() {
		if writeErr := httputil.WriteError(w, apperrors.Forbidden("Only admins may publish vessel signals")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	var vessel model.VesselSignal
	if err := json.NewDecoder(r.Body).Decode(&vessel); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &vessel); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, vessel); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *VesselHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	vessels, totalCount, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteList(w, vessels, len(vessels), totalCount, limit, offset); err != nil {
		h.log.Error("failed to write list response", "handler", "GetAll", "operation", "WriteList", "error", err)
	}
}
