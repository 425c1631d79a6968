package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sousadrivikis20-lab/Alugabv/internal/api/middleware"
	"github.com/sousadrivikis20-lab/Alugabv/internal/app/authz"
	"github.com/sousadrivikis20-lab/Alugabv/internal/app/service"
	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
	"github.com/sousadrivikis20-lab/Alugabv/internal/domain/model"
	"github.com/sousadrivikis20-lab/Alugabv/internal/platform/logging"
)

type PropertyHandler struct {
	propertyService *service.PropertyService
	limits          imageLimits
	log             logging.Logger
}

func NewPropertyHandler(ps *service.PropertyService, maxImages int, maxImageBytes int64, log logging.Logger) *PropertyHandler {
	return &PropertyHandler{
		propertyService: ps,
		limits:          imageLimits{maxCount: maxImages, maxBytes: maxImageBytes},
		log:             log,
	}
}

func (h *PropertyHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listProperties)
	r.Get("/{propertyID}", h.getProperty)

	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth)
		authed.Post("/", h.createProperty)
		authed.Put("/{propertyID}", h.updateProperty)
		authed.Delete("/{propertyID}", h.deleteProperty)
		authed.Delete("/{propertyID}/images", h.removeImage)
	})
}

type propertyResponse struct {
	Message  string          `json:"message"`
	Property *model.Property `json:"property"`
}

func (h *PropertyHandler) listProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := h.propertyService.List(r.Context())
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	if properties == nil {
		properties = []model.Property{}
	}
	common.RespondWithJSON(w, http.StatusOK, properties)
}

func (h *PropertyHandler) getProperty(w http.ResponseWriter, r *http.Request) {
	p, err := h.propertyService.Get(r.Context(), chi.URLParam(r, "propertyID"))
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, p)
}

func (h *PropertyHandler) createProperty(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	// reject non-owner accounts before reading any upload
	if err := authz.CanCreateProperty(user); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	form, err := parsePropertyForm(w, r, h.limits)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	draft, err := form.draft()
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	p, err := h.propertyService.Create(r.Context(), user, draft, form.images)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, propertyResponse{Message: "property created successfully", Property: p})
}

func (h *PropertyHandler) updateProperty(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	form, err := parsePropertyForm(w, r, h.limits)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	upd, err := form.update()
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	p, err := h.propertyService.Update(r.Context(), user, chi.URLParam(r, "propertyID"), upd, form.images)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, propertyResponse{Message: "property updated successfully", Property: p})
}

func (h *PropertyHandler) deleteProperty(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if err := h.propertyService.Delete(r.Context(), user, chi.URLParam(r, "propertyID")); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "property deleted successfully")
}

func (h *PropertyHandler) removeImage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	var req struct {
		ImagePath string `json:"imagePath"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(h.log, w, r, err)
		return
	}
	p, err := h.propertyService.RemoveImage(r.Context(), user, chi.URLParam(r, "propertyID"), req.ImagePath)
	if err != nil {
		respondError(h.log, w, r, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, propertyResponse{Message: "image removed successfully", Property: p})
}
