package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/Payphone-Digital/content-api/internal/constants"
	"github.com/Payphone-Digital/content-api/internal/dto"
	apperrors "github.com/Payphone-Digital/content-api/internal/errors"
	"github.com/Payphone-Digital/content-api/internal/listquery"
	"github.com/Payphone-Digital/content-api/internal/model"
	"github.com/Payphone-Digital/content-api/internal/repository"
	"github.com/Payphone-Digital/content-api/pkg/logger"
)

type ProductService struct {
	repo  *repository.ProductRepository
	lists *ListCache
}

func NewProductService(repo *repository.ProductRepository, lists *ListCache) *ProductService {
	return &ProductService{repo: repo, lists: lists}
}

func (s *ProductService) Schema() *listquery.Schema {
	return s.repo.Builder().Schema()
}

func (s *ProductService) List(ctx context.Context, d listquery.Descriptor) (*listquery.Envelope, bool, error) {
	ctx = serviceScope(ctx, "ListProducts")

	env, hit, err := s.lists.List(ctx, constants.EntityProducts, d, func(ctx context.Context) (*listquery.Envelope, error) {
		return s.repo.List(ctx, d)
	})
	if err != nil {
		return nil, false, storeError(err, apperrors.ErrProductNotFound)
	}
	return env, hit, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	ctx = serviceScope(ctx, "GetProduct")

	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, apperrors.ErrProductNotFound)
	}
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*model.Product, error) {
	ctx = serviceScope(ctx, "CreateProduct")

	if err := s.ensureSKUFree(ctx, req.SKU); err != nil {
		return nil, err
	}

	product := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		SKU:         req.SKU,
		InStock:     true,
		Category:    req.Category,
	}
	if req.InStock != nil {
		product.InStock = *req.InStock
	}
	if len(req.Attributes) > 0 {
		product.Attributes = datatypes.JSON(req.Attributes)
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, productError(err)
	}

	logger.InfoWithContext(ctx, "Product created").
		String("product_id", product.ID.String()).
		String("sku", product.SKU).
		Log()

	invalidate(ctx, s.lists, constants.EntityProducts)
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*model.Product, error) {
	ctx = serviceScope(ctx, "UpdateProduct")

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, productError(err)
	}

	columns := make(map[string]any)
	if req.Name != nil {
		columns["name"] = *req.Name
	}
	if req.Description != nil {
		columns["description"] = *req.Description
	}
	if req.Price != nil {
		columns["price"] = *req.Price
	}
	if req.SKU != nil && *req.SKU != current.SKU {
		if err := s.ensureSKUFree(ctx, *req.SKU); err != nil {
			return nil, err
		}
		columns["sku"] = *req.SKU
	}
	if req.InStock != nil {
		columns["in_stock"] = *req.InStock
	}
	if req.Category != nil {
		columns["category"] = *req.Category
	}
	if len(req.Attributes) > 0 {
		columns["attributes"] = datatypes.JSON(req.Attributes)
	}

	product, err := s.repo.Update(ctx, id, columns)
	if err != nil {
		return nil, productError(err)
	}

	invalidate(ctx, s.lists, constants.EntityProducts)
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	ctx = serviceScope(ctx, "DeleteProduct")

	if err := s.repo.Delete(ctx, id); err != nil {
		return productError(err)
	}

	logger.InfoWithContext(ctx, "Product deleted").
		String("product_id", id.String()).
		Log()

	invalidate(ctx, s.lists, constants.EntityProducts)
	return nil
}

func (s *ProductService) ensureSKUFree(ctx context.Context, sku string) error {
	exists, err := s.repo.SKUExists(ctx, sku)
	if err != nil {
		return storeError(err, apperrors.ErrProductNotFound)
	}
	if exists {
		logger.InfoWithContext(ctx, "Duplicate SKU rejected").
			String("sku", sku).
			Log()
		return apperrors.ErrDuplicateSKU
	}
	return nil
}

// productError also covers the insert race the SKU pre-check cannot see
func productError(err error) error {
	if repository.IsUniqueViolation(err) {
		return apperrors.WrapError(apperrors.ErrDuplicateSKU, err)
	}
	return storeError(err, apperrors.ErrProductNotFound)
}
