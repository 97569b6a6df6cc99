package handlers

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tbpedia-dashboard/internal/apiclient"
	"tbpedia-dashboard/internal/models"
	"tbpedia-dashboard/internal/resource"
	"tbpedia-dashboard/internal/services"
)

func NewCategoryScreen(client *apiclient.Client, auditor resource.Auditor, logger zerolog.Logger) *ResourceScreen[models.Category] {
	return NewResourceScreen(ScreenConfig[models.Category]{
		Definition: services.Categories,
		Label:      "Category",
		NewPayload: func() any { return &models.CategoryPayload{} },
		Filters:    []string{"major_id", "search"},
		References: func(ctx context.Context, c *services.CatalogService) (map[string]any, error) {
			majors, err := c.AllMajors(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"majors": majors}, nil
		},
	}, client, auditor, logger)
}

func NewMajorScreen(client *apiclient.Client, auditor resource.Auditor, logger zerolog.Logger) *ResourceScreen[models.Major] {
	return NewResourceScreen(ScreenConfig[models.Major]{
		Definition: services.Majors,
		Label:      "Major",
		NewPayload: func() any { return &models.MajorPayload{} },
		Filters:    []string{"search"},
	}, client, auditor, logger)
}

// NewProductScreen is the admin product screen; the form picks a seller.
func NewProductScreen(client *apiclient.Client, auditor resource.Auditor, logger zerolog.Logger) *ResourceScreen[models.Product] {
	return NewResourceScreen(ScreenConfig[models.Product]{
		Definition: services.Products,
		Label:      "Product",
		NewPayload: func() any { return &models.ProductPayload{} },
		Filters:    []string{"category_id", "seller_id", "search"},
		References: func(ctx context.Context, c *services.CatalogService) (map[string]any, error) {
			var (
				categories []models.Category
				sellers    []models.User
			)
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() (err error) {
				categories, err = c.AllCategories(ctx)
				return err
			})
			g.Go(func() (err error) {
				sellers, err = c.Sellers(ctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return nil, err
			}
			return map[string]any{"categories": categories, "sellers": sellers}, nil
		},
	}, client, auditor, logger)
}

// NewSellerProductScreen lists the signed-in seller's products. The API
// scopes the collection by credential.
func NewSellerProductScreen(client *apiclient.Client, auditor resource.Auditor, logger zerolog.Logger) *ResourceScreen[models.Product] {
	return NewResourceScreen(ScreenConfig[models.Product]{
		Definition: services.Products,
		Label:      "Product",
		NewPayload: func() any { return &models.SellerProductPayload{} },
		Filters:    []string{"category_id", "search"},
		References: func(ctx context.Context, c *services.CatalogService) (map[string]any, error) {
			categories, err := c.AllCategories(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"categories": categories}, nil
		},
	}, client, auditor, logger)
}
