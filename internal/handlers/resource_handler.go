package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tbpedia-dashboard/internal/apiclient"
	"tbpedia-dashboard/internal/apperr"
	"tbpedia-dashboard/internal/resource"
	"tbpedia-dashboard/internal/services"
)

// ReferenceFunc loads the dropdown data a screen's forms need.
type ReferenceFunc func(ctx context.Context, catalog *services.CatalogService) (map[string]any, error)

// ResourceScreen is the JSON screen of one resource family: a paginated
// list plus the mutations allowed on it.
type ResourceScreen[T any] struct {
	def        resource.Definition[T]
	label      string
	client     *apiclient.Client
	auditor    resource.Auditor
	newPayload func() any
	filters    []string
	references ReferenceFunc
	logger     zerolog.Logger
}

type ScreenConfig[T any] struct {
	Definition resource.Definition[T]
	// Label is the singular display name used in messages.
	Label string
	// NewPayload returns a pointer to the create/update form.
	NewPayload func() any
	// Filters lists the query parameters forwarded to the API.
	Filters    []string
	References ReferenceFunc
}

func NewResourceScreen[T any](cfg ScreenConfig[T], client *apiclient.Client, auditor resource.Auditor, logger zerolog.Logger) *ResourceScreen[T] {
	return &ResourceScreen[T]{
		def:        cfg.Definition,
		label:      cfg.Label,
		client:     client,
		auditor:    auditor,
		newPayload: cfg.NewPayload,
		filters:    cfg.Filters,
		references: cfg.References,
		logger:     logger.With().Str("screen", cfg.Definition.Name).Logger(),
	}
}

type listScreen[T any] struct {
	resource.View[T]
	References map[string]any `json:"references,omitempty"`
}

type mutationScreen[T any] struct {
	Message string           `json:"message"`
	List    resource.View[T] `json:"list"`
}

// open binds a catalog to the caller's session and opens the list at the
// page and filters named in the query string.
func (h *ResourceScreen[T]) open(r *http.Request) (*services.CatalogService, *resource.List[T], int, error) {
	_, client, ok := boundClient(r, h.client)
	if !ok {
		return nil, nil, 0, apperr.New(apperr.KindUnauthorized, "")
	}

	q := r.URL.Query()
	filters := make(map[string]string)
	for _, key := range h.filters {
		if v := q.Get(key); v != "" {
			filters[key] = v
		}
	}
	page := queryInt(r, "page", 1)

	catalog := services.NewCatalogService(client, h.auditor, h.logger)
	list := services.ListOf(catalog, h.def,
		resource.WithPage(page),
		resource.WithPerPage(queryInt(r, "per_page", resource.DefaultPerPage)),
		resource.WithFilters(filters),
	)
	return catalog, list, page, nil
}

// List fetches the requested page and the reference data side by side. A
// failed page still renders, empty and with its error message.
func (h *ResourceScreen[T]) List(w http.ResponseWriter, r *http.Request) {
	catalog, list, page, err := h.open(r)
	if err != nil {
		respondWithAPIError(w, err)
		return
	}
	defer list.Close()

	ctx := r.Context()
	var (
		g       errgroup.Group
		listErr error
		refs    map[string]any
	)
	g.Go(func() error {
		_, listErr = list.FetchPage(ctx, page)
		return nil
	})
	if h.references != nil {
		g.Go(func() error {
			var err error
			refs, err = h.references(ctx, catalog)
			return err
		})
	}
	refErr := g.Wait()

	for _, err := range []error{listErr, refErr} {
		if apperr.Is(err, apperr.KindUnauthorized) {
			respondWithAPIError(w, err)
			return
		}
	}
	if refErr != nil {
		logFor(r, h.logger).Error().Err(refErr).Msg("Failed to load reference data")
	}

	respondWithJSON(w, http.StatusOK, listScreen[T]{View: list.Snapshot(), References: refs})
}

func (h *ResourceScreen[T]) Create(w http.ResponseWriter, r *http.Request) {
	payload := h.newPayload()
	if err := decodeJSON(r, payload); err != nil {
		respondWithAPIError(w, err)
		return
	}
	h.mutate(w, r, http.StatusCreated, fmt.Sprintf("%s created", h.label), func(ctx context.Context, c *services.CatalogService) error {
		return h.mutator(c).Create(ctx, payload)
	})
}

func (h *ResourceScreen[T]) Update(w http.ResponseWriter, r *http.Request) {
	payload := h.newPayload()
	if err := decodeJSON(r, payload); err != nil {
		respondWithAPIError(w, err)
		return
	}
	key := mux.Vars(r)["key"]
	h.mutate(w, r, http.StatusOK, fmt.Sprintf("%s updated", h.label), func(ctx context.Context, c *services.CatalogService) error {
		return h.mutator(c).Update(ctx, key, payload)
	})
}

func (h *ResourceScreen[T]) Remove(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	h.mutate(w, r, http.StatusOK, fmt.Sprintf("%s deleted", h.label), func(ctx context.Context, c *services.CatalogService) error {
		return h.mutator(c).Remove(ctx, key)
	})
}

func (h *ResourceScreen[T]) Hide(w http.ResponseWriter, r *http.Request) {
	h.setHidden(w, r, true)
}

func (h *ResourceScreen[T]) Unhide(w http.ResponseWriter, r *http.Request) {
	h.setHidden(w, r, false)
}

func (h *ResourceScreen[T]) setHidden(w http.ResponseWriter, r *http.Request, hidden bool) {
	key := mux.Vars(r)["key"]
	msg := fmt.Sprintf("%s is now visible", h.label)
	if hidden {
		msg = fmt.Sprintf("%s hidden", h.label)
	}
	h.mutate(w, r, http.StatusOK, msg, func(ctx context.Context, c *services.CatalogService) error {
		return h.mutator(c).SetHidden(ctx, key, hidden)
	})
}

func (h *ResourceScreen[T]) mutator(c *services.CatalogService) *resource.Mutator[T] {
	return services.MutatorOf(c, h.def)
}

// mutate runs fn and answers with the list as refreshed by the bus. On
// failure the list is not fetched at all.
func (h *ResourceScreen[T]) mutate(w http.ResponseWriter, r *http.Request, code int, message string, fn func(context.Context, *services.CatalogService) error) {
	catalog, list, _, err := h.open(r)
	if err != nil {
		respondWithAPIError(w, err)
		return
	}
	defer list.Close()

	if err := fn(r.Context(), catalog); err != nil {
		respondWithAPIError(w, err)
		return
	}
	respondWithJSON(w, code, mutationScreen[T]{Message: message, List: list.Snapshot()})
}
