package inventory

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"partflow/internal/util"
)

// Category is one node of the store's part-category tree.
type Category struct {
	PK        int    `json:"pk"`
	Name      string `json:"name"`
	Parent    *int   `json:"parent"`
	PathLabel string `json:"pathstring"`
	PartCount int    `json:"part_count"`
}

// Categories lists the full category tree.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.Categories")
	defer span.End()

	var categories []Category
	if err := c.do(ctx, http.MethodGet, "/api/part/category/", nil, nil, &categories); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// CreateCategory creates a category under parent; parent nil means a root
// category.
func (c *Client) CreateCategory(ctx context.Context, name string, parent *int) (Category, error) {
	ctx, span := util.StartSpan(ctx, "Inventory.CreateCategory")
	defer span.End()

	body := map[string]any{"name": name}
	if parent != nil {
		body["parent"] = *parent
	}
	var created Category
	if err := c.do(ctx, http.MethodPost, "/api/part/category/", nil, body, &created); err != nil {
		return Category{}, fmt.Errorf("failed to create category %q: %w", name, err)
	}
	c.logger.Info("Created inventory category",
		zap.String("name", name),
		zap.Int("pk", created.PK))
	return created, nil
}

// ResolveCategoryPK walks the tree for category then subcategory by name.
// An empty subcategory resolves to the category itself. A missing node
// returns 0 and no error; the caller decides whether that is fatal.
func (c *Client) ResolveCategoryPK(ctx context.Context, category, subcategory string) (int, error) {
	categories, err := c.Categories(ctx)
	if err != nil {
		return 0, err
	}

	catPK := 0
	for _, node := range categories {
		if node.Parent == nil && node.Name == category {
			catPK = node.PK
			break
		}
	}
	if catPK == 0 || subcategory == "" {
		return catPK, nil
	}
	for _, node := range categories {
		if node.Parent != nil && *node.Parent == catPK && node.Name == subcategory {
			return node.PK, nil
		}
	}
	return 0, nil
}

// EnsureCategoryPath resolves the pair and creates whichever levels are
// missing, returning the pk of the deepest node.
func (c *Client) EnsureCategoryPath(ctx context.Context, category, subcategory string) (int, error) {
	categories, err := c.Categories(ctx)
	if err != nil {
		return 0, err
	}

	catPK := 0
	for _, node := range categories {
		if node.Parent == nil && node.Name == category {
			catPK = node.PK
			break
		}
	}
	if catPK == 0 {
		created, err := c.CreateCategory(ctx, category, nil)
		if err != nil {
			return 0, err
		}
		catPK = created.PK
	}
	if subcategory == "" {
		return catPK, nil
	}
	for _, node := range categories {
		if node.Parent != nil && *node.Parent == catPK && node.Name == subcategory {
			return node.PK, nil
		}
	}
	created, err := c.CreateCategory(ctx, subcategory, &catPK)
	if err != nil {
		return 0, err
	}
	return created.PK, nil
}
