package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"patio-backend/internal/cache"
	"patio-backend/internal/config"
	"patio-backend/internal/models"
	"patio-backend/internal/services"
	"patio-backend/internal/timeutil"
	"patio-backend/pkg/utils"
)

type AnalyticsHandler struct {
	Service *services.AnalyticsService
	Cfg     *config.Config
}

func NewAnalyticsHandler(s *services.AnalyticsService, cfg *config.Config) *AnalyticsHandler {
	return &AnalyticsHandler{Service: s, Cfg: cfg}
}

// Users returns per-user SLA accountability. Query params: inicio and fim
// as YYYY-MM-DD in local time (fim is inclusive through end of day),
// usuario_id to narrow to one actor ("all" or absent means everyone).
func (h *AnalyticsHandler) Users(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := &services.AnalyticsFilter{ActorID: q.Get("usuario_id")}

	if v := q.Get("inicio"); v != "" {
		t, err := timeutil.ParseLocal("2006-01-02", v)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "inicio inválido, use YYYY-MM-DD")
			return
		}
		filter.From = &t
	}
	if v := q.Get("fim"); v != "" {
		t, err := timeutil.ParseLocal("2006-01-02", v)
		if err != nil {
			utils.Error(w, http.StatusBadRequest, "fim inválido, use YYYY-MM-DD")
			return
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}

	key := fmt.Sprintf(cache.AnalyticsKeyFmt, actor.CompanyID,
		fmt.Sprintf("%s|%s|%s", filter.ActorID, q.Get("inicio"), q.Get("fim")))
	ttl := time.Duration(h.Cfg.Queue.AnalyticsCacheTTLSeconds) * time.Second

	data, err := cache.GetOrCompute(r.Context(), key, ttl, func() ([]byte, error) {
		stats, err := h.Service.AnalyzeUsers(r.Context(), actor.CompanyID, filter)
		if err != nil {
			return nil, err
		}
		if stats == nil {
			stats = []*models.UserStats{}
		}
		return json.Marshal(stats)
	})
	if err != nil {
		serviceError(w, err)
		return
	}
	writeRawJSON(w, data)
}
