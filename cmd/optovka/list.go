package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/optovka/internal/database"
	"github.com/nao1215/optovka/internal/model"
	"github.com/spf13/cobra"
)

// NewListCmd creates the list command and its subcommands.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored directory data",
		Long: `List reads what previous crawls stored.

Examples:
  # Categories and their subcategories
  optovka list categories
  optovka list subcategories optom-odezhda

  # Suppliers in a category whose name or city contains "алматы"
  optovka list suppliers --category optom-odezhda --search алматы

  # Second page of 50 suppliers as JSON
  optovka list suppliers --page 2 --limit 50 --json

  # Newest products flagged as new
  optovka list products --limit 20

  # Row counts per table
  optovka list counts`,
	}
	cmd.PersistentFlags().BoolP("json", "j", false, "Output JSON")

	cmd.AddCommand(newListCategoriesCmd())
	cmd.AddCommand(newListSubcategoriesCmd())
	cmd.AddCommand(newListSuppliersCmd())
	cmd.AddCommand(newListProductsCmd())
	cmd.AddCommand(newListCountsCmd())

	return cmd
}

// withStore opens the store read-only for a list command and passes it to fn.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, store *database.Store, out io.Writer, asJSON bool) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	setupLogger(cfg)

	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := openExistingStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, store, cmd.OutOrStdout(), asJSON)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func rule(out io.Writer, width int) {
	fmt.Fprintln(out, "  "+strings.Repeat("-", width))
}

func newListCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, store *database.Store, out io.Writer, asJSON bool) error {
				categories, err := store.ListCategories(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, categories)
				}
				if len(categories) == 0 {
					fmt.Fprintln(out, "No categories stored. Use 'optovka crawl' to fetch the directory.")
					return nil
				}
				fmt.Fprintf(out, "Categories (%d):\n\n", len(categories))
				fmt.Fprintf(out, "  %-6s  %-32s  %s\n", "ID", "Slug", "Name")
				rule(out, 70)
				for _, c := range categories {
					fmt.Fprintf(out, "  %-6d  %-32s  %s\n", c.ID, c.Slug, c.Name)
				}
				return nil
			})
		},
	}
}

func newListSubcategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subcategories <category-slug>",
		Short: "List the subcategories of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, store *database.Store, out io.Writer, asJSON bool) error {
				subcategories, err := store.ListSubcategories(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, subcategories)
				}
				if len(subcategories) == 0 {
					fmt.Fprintf(out, "No subcategories stored for %s\n", args[0])
					return nil
				}
				fmt.Fprintf(out, "Subcategories of %s (%d):\n\n", args[0], len(subcategories))
				fmt.Fprintf(out, "  %-6s  %-32s  %s\n", "ID", "Slug", "Name")
				rule(out, 70)
				for _, sc := range subcategories {
					fmt.Fprintf(out, "  %-6d  %-32s  %s\n", sc.ID, sc.Slug, sc.Name)
				}
				return nil
			})
		},
	}
}

func newListSuppliersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suppliers",
		Short: "List suppliers with filters and pagination",
		Args:  cobra.NoArgs,
		RunE:  runListSuppliers,
	}
	cmd.Flags().String("category", "", "Category slug")
	cmd.Flags().String("subcategory", "", "Subcategory slug")
	cmd.Flags().StringP("search", "s", "", "Case-insensitive match on name or city")
	cmd.Flags().String("city", "", "Case-insensitive match on city")
	cmd.Flags().Int("page", 1, "Page number")
	cmd.Flags().Int("limit", database.DefaultPageLimit, "Suppliers per page (max 100)")
	return cmd
}

func runListSuppliers(cmd *cobra.Command, _ []string) error {
	var filter database.SupplierFilter
	var err error
	f := cmd.Flags()
	if filter.CategorySlug, err = f.GetString("category"); err != nil {
		return err
	}
	if filter.SubcategorySlug, err = f.GetString("subcategory"); err != nil {
		return err
	}
	if filter.Search, err = f.GetString("search"); err != nil {
		return err
	}
	if filter.City, err = f.GetString("city"); err != nil {
		return err
	}
	if filter.Page, err = f.GetInt("page"); err != nil {
		return err
	}
	if filter.Limit, err = f.GetInt("limit"); err != nil {
		return err
	}

	return withStore(cmd, func(ctx context.Context, store *database.Store, out io.Writer, asJSON bool) error {
		page, err := store.ListSuppliers(ctx, filter)
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(out, page)
		}
		if len(page.Suppliers) == 0 {
			fmt.Fprintln(out, "No suppliers match.")
			return nil
		}
		pages := (page.Total + page.Limit - 1) / page.Limit
		fmt.Fprintf(out, "Suppliers (page %d of %d, %d total):\n\n", page.Page, pages, page.Total)
		fmt.Fprintf(out, "  %-6s  %-36s  %-16s  %s\n", "ID", "Name", "City", "Phone")
		rule(out, 80)
		for _, s := range page.Suppliers {
			fmt.Fprintf(out, "  %-6d  %-36s  %-16s  %s\n",
				s.ID, truncate(s.Name, 36), truncate(s.Contacts.City, 16), s.Contacts.Phone)
		}
		if page.Page < pages {
			fmt.Fprintf(out, "\nUse --page %d for more.\n", page.Page+1)
		}
		return nil
	})
}

func newListProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the newest products flagged as new",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, err := cmd.Flags().GetInt("limit")
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, store *database.Store, out io.Writer, asJSON bool) error {
				products, err := store.ListNewProducts(ctx, limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, products)
				}
				if len(products) == 0 {
					fmt.Fprintln(out, "No new products stored.")
					return nil
				}
				fmt.Fprintf(out, "New products (%d):\n\n", len(products))
				fmt.Fprintf(out, "  %-6s  %-40s  %-12s  %s\n", "ID", "Name", "Price", "Supplier")
				rule(out, 80)
				for _, p := range products {
					fmt.Fprintf(out, "  %-6d  %-40s  %-12s  %d\n", p.ID, truncate(p.Name, 40), p.Price, p.SupplierID)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", database.DefaultNewProductsLimit, "Number of products")
	return cmd
}

func newListCountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Show the number of stored rows per entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, store *database.Store, out io.Writer, asJSON bool) error {
				counts, err := store.Counts(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, counts)
				}
				for _, kind := range model.EntityKinds {
					fmt.Fprintf(out, "  %-12s %d\n", kind, counts[kind])
				}
				return nil
			})
		},
	}
}

// truncate shortens s to maxLen runes with an ellipsis.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
