package handler

import (
	"errors"
	"net/http"

	"github.com/MBSciTech/EcoChat/internal/repo"
	"github.com/MBSciTech/EcoChat/internal/service"
	"github.com/gin-gonic/gin"
)

type GroupHandler interface {
	CreateGroup(c *gin.Context)
	GetGroup(c *gin.Context)
	GetMyGroups(c *gin.Context)
	AddMember(c *gin.Context)
	RemoveMember(c *gin.Context)
	LeaveGroup(c *gin.Context)
}

type groupHandler struct {
	service service.GroupService
}

func NewGroupHandler(service service.GroupService) GroupHandler {
	return &groupHandler{service: service}
}

type createGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type addMemberRequest struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *groupHandler) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.service.CreateGroup(c.Request.Context(), currentUserID(c), req.Name, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create group"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"group": group})
}

func (h *groupHandler) GetGroup(c *gin.Context) {
	group, err := h.service.GetGroup(c.Request.Context(), c.Param("groupId"), currentUserID(c))
	if err != nil {
		writeGroupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group})
}

func (h *groupHandler) GetMyGroups(c *gin.Context) {
	groups, err := h.service.ListGroups(c.Request.Context(), currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load groups"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *groupHandler) AddMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.service.AddMember(c.Request.Context(), c.Param("groupId"), currentUserID(c), req.UserID)
	if err != nil {
		writeGroupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group})
}

func (h *groupHandler) RemoveMember(c *gin.Context) {
	group, err := h.service.RemoveMember(c.Request.Context(), c.Param("groupId"), currentUserID(c), c.Param("userId"))
	if err != nil {
		writeGroupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group})
}

func (h *groupHandler) LeaveGroup(c *gin.Context) {
	if err := h.service.LeaveGroup(c.Request.Context(), c.Param("groupId"), currentUserID(c)); err != nil {
		writeGroupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"left": true})
}

func writeGroupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
	case errors.Is(err, service.ErrNotAMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
	case errors.Is(err, service.ErrNotAdmin):
		c.JSON(http.StatusForbidden, gin.H{"error": "admin rights required"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "group operation failed"})
	}
}
