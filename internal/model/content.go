package model

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Blog struct {
	Base
	Name   string  `gorm:"type:text;not null;index:idx_blogs_name" json:"name"`
	Artiom *string `gorm:"type:text" json:"artiom"`
}

func (Blog) TableName() string { return "blogs" }

type Post struct {
	Base
	Title     string     `gorm:"type:text;not null" json:"title"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	BlogID    *uuid.UUID `gorm:"type:uuid;index:idx_posts_blog_id" json:"blogId"`
	Blog      *Blog      `gorm:"foreignKey:BlogID;constraint:OnDelete:SET NULL" json:"-"`
	Published bool       `gorm:"not null;default:false;index:idx_posts_published" json:"published"`
}

func (Post) TableName() string { return "posts" }

type Product struct {
	Base
	Name        string         `gorm:"type:varchar(200);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Price       string         `gorm:"type:decimal(10,2);not null" json:"price"`
	SKU         string         `gorm:"column:sku;type:varchar(100);not null;uniqueIndex:idx_products_sku" json:"sku"`
	InStock     bool           `gorm:"not null" json:"inStock"`
	Category    string         `gorm:"type:varchar(100);index:idx_products_category" json:"category"`
	Attributes  datatypes.JSON `gorm:"type:jsonb" json:"attributes"`
}

func (Product) TableName() string { return "products" }

// All lists the models managed by migrations, parents first
func All() []any {
	return []any{&Blog{}, &Post{}, &Product{}}
}
