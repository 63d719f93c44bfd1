package delivery

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"xpress-backend/internal/xauth/domain"
	"xpress-backend/internal/xauth/usecase"
	"xpress-backend/pkg/xapi"
)

type XAuthHandler struct {
	xauthUsecase usecase.XAuthUsecase
}

func NewXAuthHandler(xauthUsecase usecase.XAuthUsecase) *XAuthHandler {
	return &XAuthHandler{xauthUsecase: xauthUsecase}
}

// AuthURL starts the delegated-publish OAuth flow for the signed-in user.
func (h *XAuthHandler) AuthURL(c *gin.Context) {
	url, err := h.xauthUsecase.AuthURL(c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Callback is hit by X after the user authorizes; it is unauthenticated
// because the state parameter identifies the initiating user.
func (h *XAuthHandler) Callback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code or state"})
		return
	}

	cred, err := h.xauthUsecase.HandleCallback(c.Request.Context(), code, state)
	if err != nil {
		if errors.Is(err, xapi.ErrInvalidState) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": cred})
}

func (h *XAuthHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.xauthUsecase.ListAccounts(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (h *XAuthHandler) Disconnect(c *gin.Context) {
	err := h.xauthUsecase.Disconnect(c.Request.Context(), c.GetString("userID"), c.Param("xid"))
	if err != nil {
		if errors.Is(err, domain.ErrNotConnected) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account disconnected"})
}

type postRequest struct {
	Text        string `json:"text" binding:"required"`
	InReplyToID string `json:"in_reply_to_id"`
	AsUser      bool   `json:"as_user"`
}

// Post publishes a standalone post or reply, through the user's connected
// account when as_user is set.
func (h *XAuthHandler) Post(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asUserID := ""
	if req.AsUser {
		asUserID = c.GetString("userID")
	}

	id, err := h.xauthUsecase.Publish(c.Request.Context(), req.Text, req.InReplyToID, asUserID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTooLong):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrNotConnected):
			c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrRefreshFailed):
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"x_post_id": id})
}
