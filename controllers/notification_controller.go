package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bazario/middlewares"
	"bazario/services"
)

type NotificationController struct {
	notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{notifications: notifications}
}

func (ctl *NotificationController) List(c *gin.Context) {
	notifications, err := ctl.notifications.ListForVendor(c.Request.Context(), middlewares.CurrentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func (ctl *NotificationController) MarkRead(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid notification id"})
		return
	}
	if err := ctl.notifications.MarkRead(c.Request.Context(), middlewares.CurrentUser(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}
