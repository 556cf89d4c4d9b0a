package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/BekaChkhiro/rideway-api-sub002/middlewares"
	"github.com/BekaChkhiro/rideway-api-sub002/services"
	"github.com/BekaChkhiro/rideway-api-sub002/utils"
)

type ChatController struct {
	chat *services.ChatService
}

func NewChatController(chat *services.ChatService) *ChatController {
	return &ChatController{chat: chat}
}

func (ctl *ChatController) ListConversations(c *gin.Context) {
	views, err := ctl.chat.ListConversations(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, views, nil)
}

func (ctl *ChatController) CreateConversation(c *gin.Context) {
	var input struct {
		ReceiverID string `json:"receiver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	view, err := ctl.chat.FindOrCreateConversation(c.Request.Context(), middlewares.UserID(c), input.ReceiverID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, view, nil)
}

func (ctl *ChatController) GetConversation(c *gin.Context) {
	view, err := ctl.chat.GetConversation(c.Request.Context(), c.Param("id"), middlewares.UserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, view, nil)
}

func (ctl *ChatController) ListMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	msgs, err := ctl.chat.ListMessages(c.Request.Context(), c.Param("id"), middlewares.UserID(c), limit, offset)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, msgs, gin.H{"limit": limit, "offset": offset})
}

func (ctl *ChatController) SendMessage(c *gin.Context) {
	var input services.SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	msg, err := ctl.chat.SendMessage(c.Request.Context(), c.Param("id"), middlewares.UserID(c), input)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, msg, nil)
}

func (ctl *ChatController) MarkAsRead(c *gin.Context) {
	var input struct {
		MessageID *string `json:"message_id"`
	}
	_ = c.ShouldBindJSON(&input)

	if err := ctl.chat.MarkAsRead(c.Request.Context(), c.Param("id"), middlewares.UserID(c), input.MessageID); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"marked": true}, nil)
}

func (ctl *ChatController) MuteConversation(c *gin.Context) {
	var input struct {
		Muted *bool `json:"muted" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := ctl.chat.MuteConversation(c.Request.Context(), c.Param("id"), middlewares.UserID(c), *input.Muted); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"muted": *input.Muted}, nil)
}

func (ctl *ChatController) EditMessage(c *gin.Context) {
	var input struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	msg, err := ctl.chat.EditMessage(c.Request.Context(), c.Param("id"), middlewares.UserID(c), input.Content)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, msg, nil)
}

func (ctl *ChatController) DeleteMessage(c *gin.Context) {
	if err := ctl.chat.DeleteMessage(c.Request.Context(), c.Param("id"), middlewares.UserID(c)); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"deleted": true}, nil)
}

func (ctl *ChatController) GetUnreadCount(c *gin.Context) {
	summary, err := ctl.chat.GetUnreadCount(c.Request.Context(), middlewares.UserID(c))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondSuccess(c, summary, nil)
}
