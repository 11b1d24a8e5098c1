package handler

import (
	"net/http"

	"github.com/Ali-LB/dbcc/internal/api/middleware"
	"github.com/Ali-LB/dbcc/internal/app/access"
	"github.com/Ali-LB/dbcc/internal/app/service"
	"github.com/Ali-LB/dbcc/internal/common"

	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	eventService     *service.EventService
	userAdminService *service.UserAdminService
}

func NewAdminHandler(eventService *service.EventService, userAdminService *service.UserAdminService) *AdminHandler {
	return &AdminHandler{eventService: eventService, userAdminService: userAdminService}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.AdminOnly)

	r.Get("/events", h.listEvents)
	r.Post("/events", h.createEvent)
	r.Put("/events/{eventID}", h.updateEvent)
	r.Delete("/events/{eventID}", h.deleteEvent)

	r.Get("/users", h.listUsers)
	r.Put("/users/{userID}", h.updateUser)
	r.Delete("/users/{userID}", h.deleteUser)
}

func (h *AdminHandler) listEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.eventService.AdminList(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, events)
}

func (h *AdminHandler) createEvent(w http.ResponseWriter, r *http.Request) {
	var req service.CreateEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	event, err := h.eventService.Create(r.Context(), access.FromContext(r.Context()), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, event)
}

func (h *AdminHandler) updateEvent(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	event, err := h.eventService.Update(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "eventID"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, event)
}

func (h *AdminHandler) deleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.eventService.Delete(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "eventID")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userAdminService.List(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.userAdminService.Update(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "userID"), req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.userAdminService.Delete(r.Context(), access.FromContext(r.Context()), chi.URLParam(r, "userID")); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
