package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BekaChkhiro/rideway-api-sub002/middlewares"
	"github.com/BekaChkhiro/rideway-api-sub002/services"
	"github.com/BekaChkhiro/rideway-api-sub002/utils"
)

type DeviceController struct {
	tokens *services.DeviceTokenService
}

func NewDeviceController(tokens *services.DeviceTokenService) *DeviceController {
	return &DeviceController{tokens: tokens}
}

func (ctl *DeviceController) Register(c *gin.Context) {
	var input services.RegisterTokenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	dt, err := ctl.tokens.Register(c.Request.Context(), middlewares.UserID(c), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, dt, nil)
}

func (ctl *DeviceController) Unregister(c *gin.Context) {
	var input struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	found, err := ctl.tokens.Unregister(c.Request.Context(), middlewares.UserID(c), input.Token)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"removed": found}, nil)
}

func (ctl *DeviceController) UnregisterAll(c *gin.Context) {
	count, err := ctl.tokens.UnregisterAll(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"removed": count}, nil)
}
