package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tbpedia-dashboard/internal/models"
	"tbpedia-dashboard/internal/paging"
	"tbpedia-dashboard/internal/resource"
	"tbpedia-dashboard/internal/services"
)

var listable = []string{"categories", "majors", "products", "orders"}

func newListCommand(a *app) *cobra.Command {
	var (
		page    int
		perPage int
		status  string
		search  string
	)

	cmd := &cobra.Command{
		Use:       "list <categories|majors|products|orders>",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: listable,
		Short:     "Show one page of a collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := a.signedIn(cmd.Context())
			if err != nil {
				return err
			}

			filters := map[string]string{}
			if status != "" {
				filters["status"] = status
			}
			if search != "" {
				filters["search"] = search
			}
			opts := []resource.ListOption{resource.WithPerPage(perPage), resource.WithFilters(filters)}

			c := a.catalog()
			out := cmd.OutOrStdout()
			switch args[0] {
			case "categories":
				return printList(ctx, out, services.ListOf(c, services.Categories, opts...), page,
					[]string{"SLUG", "NAME", "MAJOR", "HIDDEN"},
					func(cat models.Category) []string {
						major := ""
						if cat.Major != nil {
							major = cat.Major.Name
						}
						return []string{cat.Slug, cat.Name, major, yesNo(bool(cat.IsHidden))}
					})
			case "majors":
				return printList(ctx, out, services.ListOf(c, services.Majors, opts...), page,
					[]string{"KEY", "NAME", "HIDDEN"},
					func(m models.Major) []string {
						return []string{models.MajorKey(m), m.Name, yesNo(bool(m.IsHidden))}
					})
			case "products":
				return printList(ctx, out, services.ListOf(c, services.Products, opts...), page,
					[]string{"SLUG", "NAME", "PRICE", "STOCK", "HIDDEN"},
					func(p models.Product) []string {
						return []string{p.Slug, p.Name, strconv.FormatFloat(p.Price, 'f', 0, 64), strconv.Itoa(p.Stock), yesNo(bool(p.IsHidden))}
					})
			default:
				return printList(ctx, out, services.ListOf(c, services.Orders, opts...), page,
					[]string{"ID", "CODE", "STATUS", "TOTAL", "BUYER"},
					func(o models.Order) []string {
						buyer := ""
						if o.Buyer != nil {
							buyer = o.Buyer.Name
						}
						return []string{strconv.Itoa(o.ID), o.Code, string(o.Status), strconv.FormatFloat(o.TotalAmount, 'f', 0, 64), buyer}
					})
			}
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&perPage, "per-page", resource.DefaultPerPage, "items per page")
	cmd.Flags().StringVar(&status, "status", "", "order status filter")
	cmd.Flags().StringVar(&search, "search", "", "search filter")

	return cmd
}

func printList[T any](ctx context.Context, out io.Writer, list *resource.List[T], page int, header []string, row func(T) []string) error {
	defer list.Close()

	if _, err := list.FetchPage(ctx, page); err != nil {
		return describe(err)
	}
	v := list.Snapshot()
	if v.Message != "" {
		fmt.Fprintln(out, v.Message)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	writeRow(tw, header)
	for _, item := range v.Page.Items {
		writeRow(tw, row(item))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out, pageSummary(v.Page))
	return nil
}

func pageSummary[T any](p *paging.Result[T]) string {
	s := fmt.Sprintf("page %d of %d, items %d-%d of %d", p.CurrentPage, p.TotalPages, p.From, p.To, p.TotalItems)
	if p.HasNext {
		s += fmt.Sprintf(" (next: --page %d)", p.CurrentPage+1)
	}
	return s
}

func writeRow(w io.Writer, cols []string) {
	for i, c := range cols {
		if i > 0 {
			io.WriteString(w, "\t")
		}
		io.WriteString(w, c)
	}
	io.WriteString(w, "\n")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func newHideCommand(a *app, hidden bool) *cobra.Command {
	use, short := "unhide", "Make a record visible again"
	if hidden {
		use, short = "hide", "Hide a record from buyers"
	}

	return &cobra.Command{
		Use:       use + " <categories|majors|products> <slug>",
		Args:      cobra.ExactArgs(2),
		ValidArgs: listable[:3],
		Short:     short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := a.signedIn(cmd.Context())
			if err != nil {
				return err
			}

			c := a.catalog()
			key := args[1]
			switch args[0] {
			case "categories":
				err = services.MutatorOf(c, services.Categories).SetHidden(ctx, key, hidden)
			case "majors":
				err = services.MutatorOf(c, services.Majors).SetHidden(ctx, key, hidden)
			case "products":
				err = services.MutatorOf(c, services.Products).SetHidden(ctx, key, hidden)
			default:
				return fmt.Errorf("cannot %s %q", use, args[0])
			}
			if err != nil {
				return describe(err)
			}
			state := "visible"
			if hidden {
				state = "hidden"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", args[0], key, state)
			return nil
		},
	}
}

func newOrderStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "order-status <id> <pending|onprogress|finished>",
		Args:  cobra.ExactArgs(2),
		Short: "Move an order to another status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := a.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.catalog().SetOrderStatus(ctx, args[0], models.OrderStatus(args[1])); err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s: %s\n", args[0], args[1])
			return nil
		},
	}
}
