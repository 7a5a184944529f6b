package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tina-boutique/store-service/internal/domain"
	"github.com/tina-boutique/store-service/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductExists     = errors.New("product already exists")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrCategoryInUse     = errors.New("category still has products")
	ErrHeroNotConfigured = errors.New("hero section not configured")
)

const (
	defaultPageSize = 24
	maxPageSize     = 100
)

// CatalogService backs the storefront catalog and the dashboard CRUD
// screens. Stock edits here are full replaces on the admin path; the
// checkout reservation is the only decrement path.
type CatalogService struct {
	productRepo  *repository.ProductRepository
	categoryRepo *repository.CategoryRepository
	settingsRepo *repository.SettingsRepository
	images       *repository.ImageStore
	logger       *zap.Logger
}

func NewCatalogService(
	productRepo *repository.ProductRepository,
	categoryRepo *repository.CategoryRepository,
	settingsRepo *repository.SettingsRepository,
	images *repository.ImageStore,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		settingsRepo: settingsRepo,
		images:       images,
		logger:       logger,
	}
}

func (s *CatalogService) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	if err := domain.ValidateStock(req.Stock); err != nil {
		return nil, fmt.Errorf("invalid stock table: %w", err)
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ProductID:   uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURLs:   req.ImageURLs,
		CategoryID:  req.CategoryID,
		Sizes:       req.Sizes,
		Colors:      domain.StockColors(req.Stock),
		Stock:       req.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrProductExists) {
			return nil, ErrProductExists
		}
		s.logger.Error("Failed to save product",
			zap.String("product_id", product.ProductID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Product created successfully",
		zap.String("product_id", product.ProductID),
		zap.String("name", product.Name),
		zap.Int("total_stock", domain.TotalStock(product.Stock)))

	return product, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	product, err := s.productRepo.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, limit int32, cursor string) ([]domain.Product, string, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return s.productRepo.List(ctx, limit, cursor)
}

// UpdateProduct is the admin full replace, stock table included. Colors
// are always re-derived from the stock rows so they never drift apart.
func (s *CatalogService) UpdateProduct(ctx context.Context, productID string, req domain.UpdateProductRequest) (*domain.Product, error) {
	if err := domain.ValidateStock(req.Stock); err != nil {
		return nil, fmt.Errorf("invalid stock table: %w", err)
	}

	existing, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.Price = req.Price
	existing.ImageURLs = req.ImageURLs
	existing.CategoryID = req.CategoryID
	existing.Sizes = req.Sizes
	existing.Colors = domain.StockColors(req.Stock)
	existing.Stock = req.Stock
	existing.UpdatedAt = time.Now().UTC()

	if err := s.productRepo.Update(ctx, existing); err != nil {
		s.logger.Error("Failed to update product",
			zap.String("product_id", productID),
			zap.Error(err))
		return nil, err
	}

	return existing, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, productID string) error {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, productID); err != nil {
		s.logger.Error("Failed to delete product",
			zap.String("product_id", productID),
			zap.Error(err))
		return err
	}

	// Image cleanup is best-effort and must not fail the deletion.
	if s.images != nil && len(product.ImageURLs) > 0 {
		s.images.DeleteImages(ctx, product.ImageURLs)
	}

	s.logger.Info("Product deleted", zap.String("product_id", productID))
	return nil
}

func (s *CatalogService) ResolveAvailability(ctx context.Context, productID, size, color string) (*domain.Availability, error) {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	availability := domain.ResolveAvailability(product.Stock, size, color)
	return &availability, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, req domain.CreateCategoryRequest) (*domain.Category, error) {
	category := &domain.Category{
		CategoryID: uuid.NewString(),
		Name:       req.Name,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		s.logger.Error("Failed to create category", zap.Error(err))
		return nil, err
	}
	return category, nil
}

// DeleteCategory refuses to delete a category that still has products
// pointing at it.
func (s *CatalogService) DeleteCategory(ctx context.Context, categoryID string) error {
	if _, err := s.categoryRepo.Get(ctx, categoryID); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}

	inUse, err := s.productRepo.HasProductsInCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if inUse {
		return ErrCategoryInUse
	}

	return s.categoryRepo.Delete(ctx, categoryID)
}

func (s *CatalogService) GetHero(ctx context.Context) (*domain.HeroData, error) {
	hero, err := s.settingsRepo.GetHero(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrHeroNotConfigured) {
			return nil, ErrHeroNotConfigured
		}
		return nil, err
	}
	return hero, nil
}

func (s *CatalogService) SaveHero(ctx context.Context, hero *domain.HeroData) error {
	if err := s.settingsRepo.SaveHero(ctx, hero); err != nil {
		s.logger.Error("Failed to save hero settings", zap.Error(err))
		return err
	}
	return nil
}
