package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"patio-backend/internal/cache"
	"patio-backend/internal/config"
	"patio-backend/internal/middleware"
	"patio-backend/internal/models"
	"patio-backend/internal/services"
	"patio-backend/pkg/utils"
)

// QueueHandler exposes the FilaX board over HTTP. Every route here runs
// behind the auth middleware; the actor always comes from the JWT.
type QueueHandler struct {
	Service *services.QueueService
	SLA     *services.SLAService
	Cfg     *config.Config
}

func NewQueueHandler(s *services.QueueService, sla *services.SLAService, cfg *config.Config) *QueueHandler {
	return &QueueHandler{Service: s, SLA: sla, Cfg: cfg}
}

func actorOr401(w http.ResponseWriter, r *http.Request) (*models.Actor, bool) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		utils.Error(w, http.StatusUnauthorized, "usuário não identificado")
		return nil, false
	}
	return actor, true
}

func writeRawJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// List returns the active board. The response is cached per company for a
// short TTL; every mutation invalidates it.
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	key := fmt.Sprintf(cache.BoardKeyFmt, actor.CompanyID)
	ttl := time.Duration(h.Cfg.Queue.BoardCacheTTLSeconds) * time.Second
	data, err := cache.GetOrCompute(r.Context(), key, ttl, func() ([]byte, error) {
		items, err := h.Service.List(r.Context(), actor.CompanyID, false)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []*models.QueueItem{}
		}
		return json.Marshal(items)
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	writeRawJSON(w, data)
}

// ListArchived returns the archive, cached like the board.
func (h *QueueHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	key := fmt.Sprintf(cache.ArchivedKeyFmt, actor.CompanyID)
	ttl := time.Duration(h.Cfg.Queue.BoardCacheTTLSeconds) * time.Second
	data, err := cache.GetOrCompute(r.Context(), key, ttl, func() ([]byte, error) {
		items, err := h.Service.List(r.Context(), actor.CompanyID, true)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []*models.QueueItem{}
		}
		return json.Marshal(items)
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	writeRawJSON(w, data)
}

func (h *QueueHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	var req models.CreateQueueItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	item, err := h.Service.Create(r.Context(), actor, &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, item)
}

func (h *QueueHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	item, err := h.Service.Get(r.Context(), actor.CompanyID, mux.Vars(r)["id"])
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, item)
}

func (h *QueueHandler) Move(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	var req models.MoveQueueItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	item, err := h.Service.Move(r.Context(), actor, mux.Vars(r)["id"], req.Stage, req.Notes)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, item)
}

func (h *QueueHandler) Edit(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	var req models.EditQueueItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	item, err := h.Service.Edit(r.Context(), actor, mux.Vars(r)["id"], &req)
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, item)
}

func (h *QueueHandler) Archive(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	item, err := h.Service.ArchiveItem(r.Context(), actor, mux.Vars(r)["id"])
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, item)
}

func (h *QueueHandler) ArchiveStage(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	count, err := h.Service.ArchiveStage(r.Context(), actor, mux.Vars(r)["estagio"])
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]int{"arquivados": count})
}

func (h *QueueHandler) LinkOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	var req models.LinkOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.Error(w, http.StatusBadRequest, "corpo da requisição inválido")
		return
	}

	link, warning, err := h.Service.LinkOrder(r.Context(), actor, mux.Vars(r)["id"], &req)
	if err != nil {
		serviceError(w, err)
		return
	}

	resp := map[string]interface{}{"vinculo": link}
	if warning != "" {
		resp["aviso"] = warning
	}
	utils.JSON(w, http.StatusCreated, resp)
}

func (h *QueueHandler) UnlinkOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	vars := mux.Vars(r)
	if err := h.Service.UnlinkOrder(r.Context(), actor, vars["id"], vars["ordem_id"]); err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "desvinculada"})
}

// History returns one card's event log, newest first.
func (h *QueueHandler) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	events, err := h.Service.History(r.Context(), actor.CompanyID, mux.Vars(r)["id"])
	if err != nil {
		serviceError(w, err)
		return
	}
	if events == nil {
		events = []*models.TransitionEvent{}
	}
	utils.JSON(w, http.StatusOK, events)
}

// CompanyHistory returns the most recent events across the whole board.
func (h *QueueHandler) CompanyHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	events, err := h.Service.CompanyHistory(r.Context(), actor.CompanyID, h.Cfg.Queue.HistoryLimit)
	if err != nil {
		serviceError(w, err)
		return
	}
	if events == nil {
		events = []*models.TransitionEvent{}
	}
	utils.JSON(w, http.StatusOK, events)
}

// SLAReport returns the consolidated per-stage view plus the responsibility
// breakdown for one card.
func (h *QueueHandler) SLAReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	report, err := h.SLA.Report(r.Context(), actor.CompanyID, mux.Vars(r)["id"])
	if err != nil {
		serviceError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, report)
}
