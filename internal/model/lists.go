package model

import (
	"github.com/Payphone-Digital/content-api/internal/constants"
	"github.com/Payphone-Digital/content-api/internal/listquery"
)

var timestamps = []listquery.Field{
	{Name: "createdAt", Column: "created_at", Type: listquery.TypeTime},
	{Name: "updatedAt", Column: "updated_at", Type: listquery.TypeTime},
}

func withTimestamps(fields ...listquery.Field) []listquery.Field {
	return append(fields, timestamps...)
}

// BlogList exposes blogs. id is not selectable, so it is always returned.
func BlogList(defaultLimit, maxLimit int) listquery.Config {
	return listquery.Config{
		Table: constants.EntityBlogs,
		Fields: withTimestamps(
			listquery.Field{Name: "id", Column: "id", Type: listquery.TypeUUID},
			listquery.Field{Name: "name", Column: "name", Type: listquery.TypeString},
			listquery.Field{Name: "artiom", Column: "artiom", Type: listquery.TypeString},
		),
		Selectable:   []string{"name", "artiom", "createdAt", "updatedAt"},
		Sortable:     []string{"name", "createdAt", "updatedAt"},
		Filterable:   []string{"name", "artiom", "createdAt"},
		DefaultLimit: defaultLimit,
		MaxLimit:     maxLimit,
	}
}

// PostList exposes posts with their blog as an optional relation
func PostList(defaultLimit, maxLimit int) listquery.Config {
	return listquery.Config{
		Table: constants.EntityPosts,
		Fields: withTimestamps(
			listquery.Field{Name: "id", Column: "id", Type: listquery.TypeUUID},
			listquery.Field{Name: "title", Column: "title", Type: listquery.TypeString},
			listquery.Field{Name: "content", Column: "content", Type: listquery.TypeString},
			listquery.Field{Name: "blogId", Column: "blog_id", Type: listquery.TypeUUID},
			listquery.Field{Name: "published", Column: "published", Type: listquery.TypeBool},
		),
		Selectable: []string{"id", "title", "content", "blogId", "published", "createdAt", "updatedAt"},
		Sortable:   []string{"title", "createdAt", "updatedAt"},
		Filterable: []string{"published", "blogId", "createdAt", "updatedAt", "title"},
		Relations: []listquery.Relation{{
			Name:       "blog",
			Table:      constants.EntityBlogs,
			LocalKey:   "blog_id",
			ForeignKey: "id",
			Fields: withTimestamps(
				listquery.Field{Name: "id", Column: "id", Type: listquery.TypeUUID},
				listquery.Field{Name: "name", Column: "name", Type: listquery.TypeString},
			),
		}},
		DefaultLimit: defaultLimit,
		MaxLimit:     maxLimit,
	}
}

// ProductList exposes products and accepts and/or/not filter groups
func ProductList(defaultLimit, maxLimit int) listquery.Config {
	return listquery.Config{
		Table: constants.EntityProducts,
		Fields: withTimestamps(
			listquery.Field{Name: "id", Column: "id", Type: listquery.TypeUUID},
			listquery.Field{Name: "name", Column: "name", Type: listquery.TypeString},
			listquery.Field{Name: "description", Column: "description", Type: listquery.TypeString},
			listquery.Field{Name: "price", Column: "price", Type: listquery.TypeDecimal},
			listquery.Field{Name: "sku", Column: "sku", Type: listquery.TypeString},
			listquery.Field{Name: "inStock", Column: "in_stock", Type: listquery.TypeBool},
			listquery.Field{Name: "category", Column: "category", Type: listquery.TypeString},
			listquery.Field{Name: "attributes", Column: "attributes", Type: listquery.TypeJSON},
		),
		Selectable:   []string{"name", "description", "price", "sku", "inStock", "category", "attributes", "createdAt", "updatedAt"},
		Sortable:     []string{"name", "price", "createdAt", "updatedAt"},
		Filterable:   []string{"name", "price", "sku", "inStock", "category", "createdAt"},
		DefaultLimit: defaultLimit,
		MaxLimit:     maxLimit,
		Logical:      true,
	}
}
