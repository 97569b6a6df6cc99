package services

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"tbpedia-dashboard/internal/apiclient"
	"tbpedia-dashboard/internal/models"
	"tbpedia-dashboard/internal/resource"
)

var (
	Categories = resource.Definition[models.Category]{
		Name:       "categories",
		Path:       apiclient.PathCategories,
		Addressing: resource.BySlug,
		Key:        func(c models.Category) string { return c.Slug },
	}
	Majors = resource.Definition[models.Major]{
		Name:       "majors",
		Path:       apiclient.PathMajors,
		Addressing: resource.BySlug,
		Key:        models.MajorKey,
	}
	Products = resource.Definition[models.Product]{
		Name:       "products",
		Path:       apiclient.PathProducts,
		Addressing: resource.BySlug,
		Key:        func(p models.Product) string { return p.Slug },
	}
	Orders = resource.Definition[models.Order]{
		Name:       "orders",
		Path:       apiclient.PathOrders,
		Addressing: resource.ByID,
		Key:        func(o models.Order) string { return resource.IDKey(o.ID) },
	}
	Users = resource.Definition[models.User]{
		Name:       "users",
		Path:       apiclient.PathUsers,
		Addressing: resource.ByID,
		Key:        func(u models.User) string { return resource.IDKey(u.ID) },
	}
)

// CatalogService hands out lists and mutators sharing one invalidation bus.
// A bus lives as long as one screen request or CLI command.
type CatalogService struct {
	client  resource.Doer
	bus     *resource.Bus
	auditor resource.Auditor
	logger  zerolog.Logger
}

func NewCatalogService(client resource.Doer, auditor resource.Auditor, logger zerolog.Logger) *CatalogService {
	return &CatalogService{
		client:  client,
		bus:     resource.NewBus(),
		auditor: auditor,
		logger:  logger,
	}
}

func (s *CatalogService) Client() resource.Doer {
	return s.client
}

// ListOf opens a list of def that refreshes after every mutation made
// through MutatorOf on the same service.
func ListOf[T any](s *CatalogService, def resource.Definition[T], opts ...resource.ListOption) *resource.List[T] {
	opts = append([]resource.ListOption{resource.WithBus(s.bus)}, opts...)
	return resource.NewList(s.client, def, s.logger, opts...)
}

func MutatorOf[T any](s *CatalogService, def resource.Definition[T]) *resource.Mutator[T] {
	var opts []resource.MutatorOption[T]
	if s.auditor != nil {
		opts = append(opts, resource.WithAuditor[T](s.auditor))
	}
	return resource.NewMutator(s.client, def, s.bus, s.logger, opts...)
}

// SetOrderStatus moves an order to status. Transition rules are enforced
// remotely.
func (s *CatalogService) SetOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	req := models.OrderStatusRequest{Status: status}
	return MutatorOf(s, Orders).Apply(ctx, resource.Mutation{
		Action:  resource.ActionStatus,
		Method:  http.MethodPatch,
		Key:     id,
		Suffix:  "update",
		Query:   req,
		Payload: req,
	})
}

// Sellers returns every seller account for the product form dropdown.
func (s *CatalogService) Sellers(ctx context.Context) ([]models.User, error) {
	return resource.FetchAll[models.User](ctx, s.client, Users.Path, map[string]string{"role": string(models.RoleSeller)})
}

func (s *CatalogService) AllMajors(ctx context.Context) ([]models.Major, error) {
	return resource.FetchAll[models.Major](ctx, s.client, Majors.Path, nil)
}

func (s *CatalogService) AllCategories(ctx context.Context) ([]models.Category, error) {
	return resource.FetchAll[models.Category](ctx, s.client, Categories.Path, nil)
}
