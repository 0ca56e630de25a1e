package database

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"gorm.io/gorm"
)

// listIndexes back the sort and filter paths the list endpoints allow
var listIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_blogs_created_at_id ON blogs(created_at DESC, id);",

	"CREATE INDEX IF NOT EXISTS idx_posts_blog_created ON posts(blog_id, created_at DESC);",
	"CREATE INDEX IF NOT EXISTS idx_posts_published_created ON posts(created_at DESC) WHERE published = true;",
	"CREATE INDEX IF NOT EXISTS idx_posts_title_lower ON posts(lower(title));",

	"CREATE INDEX IF NOT EXISTS idx_products_category_price ON products(category, price);",
	"CREATE INDEX IF NOT EXISTS idx_products_in_stock ON products(in_stock) WHERE in_stock = true;",
	"CREATE INDEX IF NOT EXISTS idx_products_attributes_gin ON products USING GIN (attributes);",
	"CREATE INDEX IF NOT EXISTS idx_products_name_lower ON products(lower(name));",
}

// CreateListIndexes creates every list index, collecting failures instead
// of stopping at the first one.
func CreateListIndexes(ctx context.Context, db *gorm.DB) error {
	var result *multierror.Error
	for _, stmt := range listIndexes {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", stmt, err))
		}
	}
	return result.ErrorOrNil()
}
