package services

import (
	"context"

	"bazario/models"
	"bazario/repository"
)

type NotificationService struct {
	notifications repository.NotificationRepository
}

func NewNotificationService(notifications repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// ListForVendor returns the vendor's notifications, newest first.
func (s *NotificationService) ListForVendor(ctx context.Context, vendorID int64) ([]models.Notification, error) {
	return s.notifications.ListByVendor(ctx, vendorID)
}

// MarkRead flips the read flag; only the addressed vendor may do so.
func (s *NotificationService) MarkRead(ctx context.Context, vendorID, id int64) error {
	return s.notifications.MarkRead(ctx, id, vendorID)
}
