package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"patio-backend/internal/models"
	"patio-backend/internal/services"
	"patio-backend/pkg/utils"
)

type StageHandler struct {
	Registry *services.StageRegistry
}

func NewStageHandler(registry *services.StageRegistry) *StageHandler {
	return &StageHandler{Registry: registry}
}

// List returns every stage of the company's board in display order.
func (h *StageHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	stages, err := h.Registry.List(r.Context(), actor.CompanyID)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, stages)
}

// Create registers a custom stage explicitly, as opposed to the implicit
// registration a move to an unknown key performs.
func (h *StageHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	var req models.CreateStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	stage, err := h.Registry.CreateCustom(r.Context(), actor.CompanyID, &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, stage)
}

func (h *StageHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	var req models.UpdateStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	stage, err := h.Registry.UpdateStage(r.Context(), actor.CompanyID, mux.Vars(r)["key"], &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, stage)
}
