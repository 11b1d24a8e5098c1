package handler

import (
	"net/http"

	"github.com/Ali-LB/dbcc/internal/api/middleware"
	"github.com/Ali-LB/dbcc/internal/app/access"
	"github.com/Ali-LB/dbcc/internal/app/service"
	"github.com/Ali-LB/dbcc/internal/common"

	"github.com/go-chi/chi/v5"
)

type MeHandler struct {
	registrationService *service.RegistrationService
}

func NewMeHandler(registrationService *service.RegistrationService) *MeHandler {
	return &MeHandler{registrationService: registrationService}
}

func (h *MeHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Get("/rsvps", h.listRSVPs)
}

func (h *MeHandler) listRSVPs(w http.ResponseWriter, r *http.Request) {
	regs, err := h.registrationService.ListMine(r.Context(), access.FromContext(r.Context()))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, regs)
}
