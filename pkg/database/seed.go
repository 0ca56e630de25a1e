package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Payphone-Digital/content-api/internal/model"
)

// SeedResult counts the rows a Seed call actually inserted
type SeedResult struct {
	Blogs    int
	Posts    int
	Products int
}

type seedPost struct {
	title     string
	content   string
	published bool
}

type seedBlog struct {
	name  string
	posts []seedPost
}

var sampleBlogs = []seedBlog{
	{
		name: "Engineering Notes",
		posts: []seedPost{
			{"Paginating large tables", "Offset pages are simple; cursors scale.", true},
			{"Caching list queries", "Fingerprint the query, not the URL.", true},
			{"Draft: index tuning", "Partial indexes for hot filters.", false},
		},
	},
	{
		name: "Product Updates",
		posts: []seedPost{
			{"Spring catalogue", "New kitchen and office lines.", true},
		},
	},
}

var sampleProducts = []model.Product{
	{Name: "Enamel Mug", Description: "350ml camping mug", Price: "12.50", SKU: "KIT-MUG-001", InStock: true, Category: "kitchen",
		Attributes: datatypes.JSON(`{"color":"white","capacityMl":350}`)},
	{Name: "Cast Iron Pan", Description: "26cm skillet", Price: "49.90", SKU: "KIT-PAN-026", InStock: false, Category: "kitchen",
		Attributes: datatypes.JSON(`{"diameterCm":26}`)},
	{Name: "Fountain Pen", Description: "Fine nib", Price: "24.00", SKU: "OFF-PEN-F01", InStock: true, Category: "office",
		Attributes: datatypes.JSON(`{"nib":"F","ink":"blue"}`)},
}

// Seed inserts sample content. Rows are matched by blog name, post title
// and product SKU, so running it twice adds nothing.
func Seed(ctx context.Context, db *gorm.DB) (SeedResult, error) {
	var res SeedResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sb := range sampleBlogs {
			blog := model.Blog{Name: sb.name}
			created, err := firstOrCreate(tx, &blog, "name = ?", sb.name)
			if err != nil {
				return fmt.Errorf("seed blog %q: %w", sb.name, err)
			}
			res.Blogs += created

			for _, sp := range sb.posts {
				post := model.Post{Title: sp.title, Content: sp.content, Published: sp.published, BlogID: ptr(blog.ID)}
				created, err := firstOrCreate(tx, &post, "title = ? AND blog_id = ?", sp.title, blog.ID)
				if err != nil {
					return fmt.Errorf("seed post %q: %w", sp.title, err)
				}
				res.Posts += created
			}
		}

		for _, p := range sampleProducts {
			product := p
			created, err := firstOrCreate(tx, &product, "sku = ?", p.SKU)
			if err != nil {
				return fmt.Errorf("seed product %q: %w", p.SKU, err)
			}
			res.Products += created
		}
		return nil
	})
	return res, err
}

func firstOrCreate(tx *gorm.DB, dest any, query string, args ...any) (int, error) {
	result := tx.Where(query, args...).FirstOrCreate(dest)
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

func ptr(id uuid.UUID) *uuid.UUID { return &id }
