package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Payphone-Digital/content-api/internal/constants"
	"github.com/Payphone-Digital/content-api/internal/model"
	ctxutil "github.com/Payphone-Digital/content-api/pkg/context"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

type BlogRepository struct {
	store[model.Blog]
	lister
}

func NewBlogRepository(db *gorm.DB, defaultLimit, maxLimit int) (*BlogRepository, error) {
	b, err := newBuilder(db, model.BlogList(defaultLimit, maxLimit))
	if err != nil {
		return nil, err
	}
	return &BlogRepository{
		store:  store[model.Blog]{db: db, entity: constants.EntityBlogs},
		lister: lister{builder: b},
	}, nil
}

type PostRepository struct {
	store[model.Post]
	lister
}

func NewPostRepository(db *gorm.DB, defaultLimit, maxLimit int) (*PostRepository, error) {
	b, err := newBuilder(db, model.PostList(defaultLimit, maxLimit))
	if err != nil {
		return nil, err
	}
	return &PostRepository{
		store:  store[model.Post]{db: db, entity: constants.EntityPosts},
		lister: lister{builder: b},
	}, nil
}

type ProductRepository struct {
	store[model.Product]
	lister
}

func NewProductRepository(db *gorm.DB, defaultLimit, maxLimit int) (*ProductRepository, error) {
	b, err := newBuilder(db, model.ProductList(defaultLimit, maxLimit))
	if err != nil {
		return nil, err
	}
	return &ProductRepository{
		store:  store[model.Product]{db: db, entity: constants.EntityProducts},
		lister: lister{builder: b},
	}, nil
}

// SKUExists reports whether another product already uses sku
func (r *ProductRepository) SKUExists(ctx context.Context, sku string) (bool, error) {
	ctx = context.WithValue(ctx, ctxutil.FunctionKey, "SKUExists")
	ctx = context.WithValue(ctx, ctxutil.ModuleKey, "repository")

	start := time.Now()
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("sku = ?", sku).Count(&count).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to check SKU").
			String("sku", sku).
			Duration(time.Since(start)).
			Err(err).
			Log()
		return false, err
	}
	return count > 0, nil
}
