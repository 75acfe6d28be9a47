package services

import (
	"context"

	"bazario/models"
	"bazario/repository"
)

type ReviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
}

func NewReviewService(reviews repository.ReviewRepository, products repository.ProductRepository) *ReviewService {
	return &ReviewService{reviews: reviews, products: products}
}

// Add records a customer review; the rating scale is 1..5.
func (s *ReviewService) Add(ctx context.Context, customer *models.User, productID int64, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidRating
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	r := models.Review{
		ProductID:  productID,
		CustomerID: customer.ID,
		Rating:     rating,
		Comment:    comment,
	}
	if err := s.reviews.Create(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *ReviewService) ListByProduct(ctx context.Context, productID int64) ([]models.Review, error) {
	return s.reviews.ListByProduct(ctx, productID)
}
