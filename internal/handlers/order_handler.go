package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"tbpedia-dashboard/internal/apiclient"
	"tbpedia-dashboard/internal/models"
	"tbpedia-dashboard/internal/resource"
	"tbpedia-dashboard/internal/services"
)

// OrderHandler serves the order screens of admins and sellers. Orders are
// never created or edited here; only their status moves.
type OrderHandler struct {
	*ResourceScreen[models.Order]
}

func NewOrderHandler(client *apiclient.Client, auditor resource.Auditor, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		ResourceScreen: NewResourceScreen(ScreenConfig[models.Order]{
			Definition: services.Orders,
			Label:      "Order",
			Filters:    []string{"status"},
		}, client, auditor, logger),
	}
}

func (h *OrderHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	status := models.OrderStatus(r.URL.Query().Get("status"))

	msg := fmt.Sprintf("Order %s is now %s", id, status)
	h.mutate(w, r, http.StatusOK, msg, func(ctx context.Context, c *services.CatalogService) error {
		return c.SetOrderStatus(ctx, id, status)
	})
}
