package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BekaChkhiro/rideway-api-sub002/middlewares"
	"github.com/BekaChkhiro/rideway-api-sub002/models"
	"github.com/BekaChkhiro/rideway-api-sub002/services"
	"github.com/BekaChkhiro/rideway-api-sub002/utils"
)

type NotificationController struct {
	notifications *services.NotificationService
}

func NewNotificationController(notifications *services.NotificationService) *NotificationController {
	return &NotificationController{notifications: notifications}
}

func (ctl *NotificationController) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	rows, err := ctl.notifications.List(c.Request.Context(), middlewares.UserID(c), limit, offset)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, rows, gin.H{"limit": limit, "offset": offset})
}

func (ctl *NotificationController) MarkRead(c *gin.Context) {
	if err := ctl.notifications.MarkRead(c.Request.Context(), c.Param("id"), middlewares.UserID(c)); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"read": true}, nil)
}

func (ctl *NotificationController) MarkAllRead(c *gin.Context) {
	count, err := ctl.notifications.MarkAllRead(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"read": count}, nil)
}

func (ctl *NotificationController) UnreadCount(c *gin.Context) {
	count, err := ctl.notifications.UnreadCount(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"count": count}, nil)
}

func (ctl *NotificationController) GetPreferences(c *gin.Context) {
	pref, err := ctl.notifications.GetPreferences(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, pref, nil)
}

func (ctl *NotificationController) UpdatePreferences(c *gin.Context) {
	var pref models.NotificationPreference
	if err := c.ShouldBindJSON(&pref); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	pref.UserID = middlewares.UserID(c)

	if err := ctl.notifications.UpdatePreferences(c.Request.Context(), &pref); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, pref, nil)
}
