package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	config "github.com/legendaryias/ias_mentor/configs"
	"github.com/legendaryias/ias_mentor/models"
	"github.com/legendaryias/ias_mentor/store"
	"github.com/microcosm-cc/bluemonday"
)

type ProductInput struct {
	Title       string                 `json:"title" validate:"required,max=255"`
	Slug        string                 `json:"slug" validate:"omitempty,max=255"`
	Category    models.ProductCategory `json:"category" validate:"required,oneof=course material"`
	Description string                 `json:"description"`
	Price       float64                `json:"price" validate:"required,gt=0"`
	Currency    string                 `json:"currency" validate:"omitempty,len=3"`
	IsActive    *bool                  `json:"is_active"`
}

type CatalogService struct {
	products store.CatalogStore
	policy   *bluemonday.Policy
}

func NewCatalogService(products store.CatalogStore) *CatalogService {
	return &CatalogService{products: products, policy: bluemonday.UGCPolicy()}
}

func (s *CatalogService) List(ctx context.Context, category string, activeOnly bool) ([]models.Product, error) {
	cat := models.ProductCategory(category)
	if cat != "" && !cat.Valid() {
		return nil, validationError("unknown category %q", category)
	}
	return s.products.ListProducts(ctx, cat, activeOnly)
}

func (s *CatalogService) Get(ctx context.Context, id string, activeOnly bool) (*models.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, validationError("invalid product ID format")
	}
	product, err := s.products.GetProduct(ctx, productID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && activeOnly && !product.IsActive) {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return product, err
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	product := &models.Product{IsActive: true}
	if err := s.apply(product, in); err != nil {
		return nil, err
	}
	if err := s.products.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: slug %q is taken", ErrConflict, product.Slug)
		}
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) Update(ctx context.Context, id string, in ProductInput) (*models.Product, error) {
	product, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if err := s.apply(product, in); err != nil {
		return nil, err
	}
	if err := s.products.UpdateProduct(ctx, product); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return nil, fmt.Errorf("%w: slug %q is taken", ErrConflict, product.Slug)
		case errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) Deactivate(ctx context.Context, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return validationError("invalid product ID format")
	}
	if err := s.products.DeactivateProduct(ctx, productID); errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: product %s", ErrNotFound, id)
	} else if err != nil {
		return err
	}
	return nil
}

func (s *CatalogService) apply(p *models.Product, in ProductInput) error {
	if err := validate.Struct(in); err != nil {
		return fromValidator(err)
	}
	p.Title = strings.TrimSpace(in.Title)
	p.Slug = Slugify(in.Slug)
	if p.Slug == "" {
		p.Slug = Slugify(in.Title)
	}
	if p.Slug == "" {
		return validationError("title must contain letters or digits")
	}
	p.Category = in.Category
	p.Description = s.policy.Sanitize(in.Description)
	p.Price = in.Price
	p.Currency = strings.ToUpper(in.Currency)
	if p.Currency == "" {
		p.Currency = config.DefaultCurrency
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
