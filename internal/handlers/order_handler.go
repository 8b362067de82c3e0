package handlers

import (
	"net/http"

	"patio-backend/internal/models"
	"patio-backend/internal/services"
	"patio-backend/pkg/utils"
)

type OrderHandler struct {
	Provider services.OrderProvider
}

func NewOrderHandler(provider services.OrderProvider) *OrderHandler {
	return &OrderHandler{Provider: provider}
}

// Search powers the link-order dialog. excluir_vinculadas=true hides orders
// already attached to any card.
func (h *OrderHandler) Search(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorOr401(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	excludeLinked := q.Get("excluir_vinculadas") == "true"

	orders, err := h.Provider.Search(r.Context(), actor.CompanyID, q.Get("q"), excludeLinked)
	if err != nil {
		serviceError(w, err)
		return
	}
	if orders == nil {
		orders = []*models.OrderSummary{}
	}
	utils.JSON(w, http.StatusOK, orders)
}
