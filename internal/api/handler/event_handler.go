package handler

import (
	"net/http"

	"github.com/Ali-LB/dbcc/internal/api/middleware"
	"github.com/Ali-LB/dbcc/internal/app/access"
	"github.com/Ali-LB/dbcc/internal/app/service"
	"github.com/Ali-LB/dbcc/internal/common"

	"github.com/go-chi/chi/v5"
)

type EventHandler struct {
	eventService        *service.EventService
	registrationService *service.RegistrationService
}

func NewEventHandler(eventService *service.EventService, registrationService *service.RegistrationService) *EventHandler {
	return &EventHandler{eventService: eventService, registrationService: registrationService}
}

func (h *EventHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listEvents)
	r.Route("/{eventID}", func(r chi.Router) {
		r.Get("/", h.getEvent)
		r.With(middleware.Authenticator).Post("/rsvp", h.register)
		r.With(middleware.Authenticator).Delete("/rsvp", h.cancel)
	})
}

func (h *EventHandler) listEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.ListPublic(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, events)
}

func (h *EventHandler) getEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.eventService.Get(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "eventID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, event)
}

func (h *EventHandler) register(w http.ResponseWriter, r *http.Request) {
	reg, err := h.registrationService.Register(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "eventID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, reg)
}

func (h *EventHandler) cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.registrationService.Cancel(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "eventID")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithMessage(w, http.StatusOK, "RSVP cancelled")
}
