package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/AdamsEmmanuel/Chatbot/internal/admin"
	"github.com/AdamsEmmanuel/Chatbot/internal/common"
)

func pageParams(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	offset, _ = strconv.Atoi(c.Query("skip"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handler) AdminListUsers(c *gin.Context) {
	limit, offset := pageParams(c)

	users, err := h.AdminSvc.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.OK(c, gin.H{"users": users})
}

func (h *Handler) AdminGetUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10005, "invalid user id")
		return
	}

	user, err := h.AdminSvc.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "user not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.OK(c, user)
}

func (h *Handler) AdminListUserMessages(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10005, "invalid user id")
		return
	}
	limit, offset := pageParams(c)

	msgs, err := h.AdminSvc.ListUserMessages(c.Request.Context(), userID, limit, offset)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40402, "user not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.OK(c, gin.H{"messages": msgs})
}

func (h *Handler) AdminListMessages(c *gin.Context) {
	limit, offset := pageParams(c)

	msgs, err := h.AdminSvc.ListAllMessages(c.Request.Context(), limit, offset)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.OK(c, gin.H{"messages": msgs})
}

func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.AdminSvc.Stats(c.Request.Context(), time.Now())
	if err != nil {
		h.Log.Error("stats aggregation failed", zap.Error(err))
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.OK(c, stats)
}

func (h *Handler) AdminToggleUserActive(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10005, "invalid user id")
		return
	}

	user, err := h.AdminSvc.ToggleUserActive(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			common.Fail(c, http.StatusNotFound, 40402, "user not found")
		case errors.Is(err, admin.ErrAdminLockout):
			common.Fail(c, http.StatusBadRequest, 10006, "cannot deactivate admin users")
		default:
			common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		}
		return
	}

	status := "deactivated"
	if user.IsActive {
		status = "activated"
	}
	common.OK(c, gin.H{"message": "User " + user.Username + " has been " + status})
}

func (h *Handler) AdminDeleteMessage(c *gin.Context) {
	messageID, err := strconv.ParseUint(c.Param("message_id"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10007, "invalid message id")
		return
	}

	if err := h.AdminSvc.DeleteMessage(c.Request.Context(), messageID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			common.Fail(c, http.StatusNotFound, 40403, "message not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}
	common.OK(c, gin.H{"message": "Message deleted successfully"})
}
