package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"bazario/models"
	"bazario/repository"
)

// ProductService covers vendor catalog management. Stock is never mutated
// here; only the order lifecycle touches it.
type ProductService struct {
	products repository.ProductRepository
	log      *logrus.Entry
}

func NewProductService(products repository.ProductRepository) *ProductService {
	return &ProductService{
		products: products,
		log:      logrus.WithField("component", "products"),
	}
}

func (s *ProductService) Create(ctx context.Context, vendor *models.User, p models.Product) (*models.Product, error) {
	p.VendorID = vendor.ID
	if err := s.products.Create(ctx, &p); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"product_id": p.ID, "vendor_id": vendor.ID}).Info("product created")
	return &p, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *ProductService) List(ctx context.Context, f repository.ProductFilter) ([]models.Product, error) {
	return s.products.List(ctx, f)
}

// Update lets the owning vendor change catalog fields. The stored stock and
// vendor are preserved; stock moves only through the order lifecycle.
func (s *ProductService) Update(ctx context.Context, caller *models.User, p models.Product) (*models.Product, error) {
	existing, err := s.products.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if existing.VendorID != caller.ID {
		return nil, ErrForbidden
	}
	p.VendorID = existing.VendorID
	p.Stock = existing.Stock
	if err := s.products.Update(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete is restricted to the owning vendor or an admin.
func (s *ProductService) Delete(ctx context.Context, caller *models.User, id int64) error {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if caller.Role != models.RoleAdmin && p.VendorID != caller.ID {
		return ErrForbidden
	}
	return s.products.Delete(ctx, id)
}
