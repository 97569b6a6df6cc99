package handlers

import (
	"net/http"
	pathpkg "path"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tbpedia-dashboard/internal/apiclient"
	"tbpedia-dashboard/internal/apperr"
	"tbpedia-dashboard/internal/models"
	"tbpedia-dashboard/internal/paging"
	"tbpedia-dashboard/internal/resource"
	"tbpedia-dashboard/internal/services"
)

type DashboardHandler struct {
	client *apiclient.Client
	logger zerolog.Logger
}

func NewDashboardHandler(client *apiclient.Client, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		client: client,
		logger: logger,
	}
}

type dashboard struct {
	User   *models.User   `json:"user"`
	Totals map[string]int `json:"totals,omitempty"`
	Menu   []menuEntry    `json:"menu,omitempty"`
	Errors []string       `json:"errors,omitempty"`
}

type menuEntry struct {
	Title       string      `json:"title"`
	URL         string      `json:"url"`
	Description string      `json:"description,omitempty"`
	Items       []menuEntry `json:"items,omitempty"`
}

// buyerMenu groups the categories of each major for the buyer navigation.
func buyerMenu(majors []models.Major) []menuEntry {
	menu := make([]menuEntry, 0, len(majors))
	for _, m := range majors {
		entry := menuEntry{
			Title: m.Name,
			URL:   "/majors/" + strconv.Itoa(m.ID),
			Items: make([]menuEntry, 0, len(m.Categories)),
		}
		for _, c := range m.Categories {
			entry.Items = append(entry.Items, menuEntry{
				Title:       c.Name,
				URL:         "/category/" + c.Slug,
				Description: c.Description,
			})
		}
		menu = append(menu, entry)
	}
	return menu
}

func (h *DashboardHandler) Admin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, services.Categories.Path, services.Majors.Path, services.Products.Path, services.Orders.Path)
}

func (h *DashboardHandler) Seller(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, services.Products.Path, services.Orders.Path)
}

// BuyerHome answers the buyer shell: the user and a menu of majors with
// their categories. A failed menu fetch leaves the menu empty.
func (h *DashboardHandler) BuyerHome(w http.ResponseWriter, r *http.Request) {
	store, client, ok := boundClient(r, h.client)
	if !ok {
		respondWithAPIError(w, apperr.New(apperr.KindUnauthorized, ""))
		return
	}

	d := dashboard{User: store.User(), Menu: []menuEntry{}}
	majors, err := resource.FetchPage[models.Major](r.Context(), client, services.Majors.Path, paging.Params{Page: 1})
	switch {
	case apperr.Is(err, apperr.KindUnauthorized):
		respondWithAPIError(w, err)
		return
	case err != nil:
		logFor(r, h.logger).Warn().Err(err).Msg("Buyer menu unavailable")
		d.Errors = append(d.Errors, "majors: "+apperr.Message(err))
	default:
		d.Menu = buyerMenu(majors.Items)
	}
	respondWithJSON(w, http.StatusOK, d)
}

// render counts each collection with a one-item page request, all in
// parallel. A failed count is reported, not fatal.
func (h *DashboardHandler) render(w http.ResponseWriter, r *http.Request, paths ...string) {
	store, client, ok := boundClient(r, h.client)
	if !ok {
		respondWithAPIError(w, apperr.New(apperr.KindUnauthorized, ""))
		return
	}

	totals := make([]int, len(paths))
	errs := make([]error, len(paths))
	g, ctx := errgroup.WithContext(r.Context())
	for i, path := range paths {
		g.Go(func() error {
			res, err := resource.FetchPage[map[string]any](ctx, client, path, paging.Params{Page: 1, PerPage: 1})
			if err != nil {
				errs[i] = err
				if apperr.Is(err, apperr.KindUnauthorized) {
					return err
				}
				return nil
			}
			totals[i] = res.TotalItems
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		respondWithAPIError(w, err)
		return
	}

	d := dashboard{User: store.User()}
	if len(paths) > 0 {
		d.Totals = make(map[string]int, len(paths))
	}
	for i, path := range paths {
		name := pathpkg.Base(path)
		if errs[i] != nil {
			logFor(r, h.logger).Warn().Err(errs[i]).Str("collection", name).Msg("Dashboard count failed")
			d.Errors = append(d.Errors, name+": "+apperr.Message(errs[i]))
			continue
		}
		d.Totals[name] = totals[i]
	}
	respondWithJSON(w, http.StatusOK, d)
}
