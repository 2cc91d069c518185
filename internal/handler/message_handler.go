package handler

import (
	"net/http"
	"strconv"

	"github.com/MBSciTech/EcoChat/internal/service"
	"github.com/gin-gonic/gin"
)

type MessageHandler interface {
	GetGroupMessages(c *gin.Context)
}

type messageHandler struct {
	service service.MessageService
}

func NewMessageHandler(service service.MessageService) MessageHandler {
	return &messageHandler{service: service}
}

func (h *messageHandler) GetGroupMessages(c *gin.Context) {
	page := c.DefaultQuery("page", "1")
	pageNumber, err := strconv.ParseInt(page, 10, 64)
	if err != nil || pageNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page number"})
		return
	}

	result, err := h.service.GetGroupMessages(c.Request.Context(), c.Param("groupId"), currentUserID(c), pageNumber)
	if err != nil {
		writeGroupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages":   result.Data,
		"total":      result.Total,
		"page":       result.Page,
		"totalPages": result.TotalPages,
	})
}
