package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/afrosatoshi1/STOR1/internal/domain"
	"github.com/afrosatoshi1/STOR1/internal/repository"
	apperrors "github.com/afrosatoshi1/STOR1/pkg/errors"
)

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Price       int64  `json:"price" validate:"required,gt=0"`
	Category    string `json:"category" validate:"max=100"`
	Description string `json:"description" validate:"max=2000"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

// UpdateProductInput holds the parameters for updating a product.
type UpdateProductInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Price       int64  `json:"price" validate:"required,gt=0"`
	Category    string `json:"category" validate:"max=100"`
	Description string `json:"description" validate:"max=2000"`
	ImageURL    string `json:"image_url" validate:"omitempty,url"`
}

// ProductService implements the business logic for the product catalog.
type ProductService struct {
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(products repository.ProductRepository, logger *slog.Logger) *ProductService {
	return &ProductService{
		products: products,
		logger:   logger,
	}
}

// Get retrieves a product for public display. Inactive products read as not
// found unless the actor is an admin. Public reads bump the view counter,
// best effort.
func (s *ProductService) Get(ctx context.Context, id int64, actor domain.Actor) (*domain.Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !product.Active && !actor.IsAdmin {
		return nil, apperrors.NotFound("product", fmt.Sprintf("%d", id))
	}

	if !actor.IsAdmin {
		if err := s.products.IncrementViews(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "failed to increment product views",
				slog.Int64("product_id", id),
				slog.String("error", err.Error()),
			)
		} else {
			product.Views++
		}
	}

	return product, nil
}

// List returns catalog products. Non-admins only see active products.
func (s *ProductService) List(ctx context.Context, actor domain.Actor, category string, page, perPage int) ([]domain.Product, int, error) {
	activeOnly := !actor.IsAdmin
	return s.products.List(ctx, activeOnly, category, page, perPage)
}

// Create adds a product to the catalog. Admin capability only.
func (s *ProductService) Create(ctx context.Context, input CreateProductInput, actor domain.Actor) (*domain.Product, error) {
	if !actor.IsAdmin {
		return nil, apperrors.Forbidden("admin capability required")
	}

	product := &domain.Product{
		Name:        input.Name,
		Price:       input.Price,
		Category:    input.Category,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Active:      true,
	}

	created, err := s.products.Create(ctx, product)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", created.ID),
		slog.String("name", created.Name),
		slog.String("created_by", actor.UserID),
	)

	return created, nil
}

// Update rewrites a product's mutable fields. Admin capability only. Lines
// already in carts and orders keep their snapshotted price.
func (s *ProductService) Update(ctx context.Context, id int64, input UpdateProductInput, actor domain.Actor) (*domain.Product, error) {
	if !actor.IsAdmin {
		return nil, apperrors.Forbidden("admin capability required")
	}

	product, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Price = input.Price
	product.Category = input.Category
	product.Description = input.Description
	product.ImageURL = input.ImageURL

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.Int64("product_id", id),
		slog.String("updated_by", actor.UserID),
	)

	return product, nil
}

// Deactivate hides a product from the public catalog and blocks new cart
// adds. The row stays so old order lines keep their product. Admin only.
func (s *ProductService) Deactivate(ctx context.Context, id int64, actor domain.Actor) error {
	if !actor.IsAdmin {
		return apperrors.Forbidden("admin capability required")
	}

	if err := s.products.SetActive(ctx, id, false); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "product deactivated",
		slog.Int64("product_id", id),
		slog.String("deactivated_by", actor.UserID),
	)

	return nil
}

// Activate returns a previously deactivated product to the catalog. Admin only.
func (s *ProductService) Activate(ctx context.Context, id int64, actor domain.Actor) error {
	if !actor.IsAdmin {
		return apperrors.Forbidden("admin capability required")
	}

	if err := s.products.SetActive(ctx, id, true); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "product activated",
		slog.Int64("product_id", id),
		slog.String("activated_by", actor.UserID),
	)

	return nil
}
