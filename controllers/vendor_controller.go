package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bazario/middlewares"
	"bazario/models"
	"bazario/repository"
)

type VendorController struct {
	profiles repository.VendorProfileRepository
}

func NewVendorController(profiles repository.VendorProfileRepository) *VendorController {
	return &VendorController{profiles: profiles}
}

type createVendorReq struct {
	StoreName        string `json:"store_name" binding:"required"`
	StoreDescription string `json:"store_description"`
}

func (ctl *VendorController) Create(c *gin.Context) {
	var req createVendorReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	profile := models.VendorProfile{
		UserID:           middlewares.CurrentUser(c).ID,
		StoreName:        req.StoreName,
		StoreDescription: req.StoreDescription,
	}
	if err := ctl.profiles.Create(c.Request.Context(), &profile); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, profile)
}

func (ctl *VendorController) List(c *gin.Context) {
	profiles, err := ctl.profiles.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}
