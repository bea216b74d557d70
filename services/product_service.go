package services

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/apperrors"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/database"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/models"
)

// ProductService exposes catalog reads. The cart controller uses it to
// hydrate price, name and image for a line being added, so clients only ever
// send product IDs and never their own prices.
type ProductService interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, category string, limit int64) ([]models.Product, error)
}

type productService struct {
	repo *database.ProductRepository
}

func NewProductService(repo *database.ProductRepository) ProductService {
	return &productService{repo: repo}
}

func (s *productService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) ListProducts(ctx context.Context, category string, limit int64) ([]models.Product, error) {
	products, err := s.repo.FindAll(ctx, category, limit)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}
