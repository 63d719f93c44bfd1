package api

import (
	authUsecase "xpress-backend/internal/auth/usecase"
	trackerUsecase "xpress-backend/internal/tracker/usecase"
	xauthUsecase "xpress-backend/internal/xauth/usecase"
	"xpress-backend/pkg/config"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase     authUsecase.AuthUsecase
	trackerUsecase  trackerUsecase.TrackerUsecase
	replyUsecase    trackerUsecase.ReplyUsecase
	dispatchUsecase trackerUsecase.DispatchUsecase
	xauthUsecase    xauthUsecase.XAuthUsecase
	config          *config.Config
}

func NewHandler(
	authUc authUsecase.AuthUsecase,
	trackerUc trackerUsecase.TrackerUsecase,
	replyUc trackerUsecase.ReplyUsecase,
	dispatchUc trackerUsecase.DispatchUsecase,
	xauthUc xauthUsecase.XAuthUsecase,
	cfg *config.Config,
) *Handler {
	return &Handler{
		authUsecase:     authUc,
		trackerUsecase:  trackerUc,
		replyUsecase:    replyUc,
		dispatchUsecase: dispatchUc,
		xauthUsecase:    xauthUc,
		config:          cfg,
	}
}

func (h *Handler) Start(addr string) error {
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.trackerUsecase, h.replyUsecase, h.dispatchUsecase, h.xauthUsecase)

	return r.Run(addr)
}
