package api

import (
	"net/http"

	"xpress-backend/internal/auth/delivery"
	authUsecase "xpress-backend/internal/auth/usecase"
	trackerDelivery "xpress-backend/internal/tracker/delivery"
	trackerUsecase "xpress-backend/internal/tracker/usecase"
	xauthDelivery "xpress-backend/internal/xauth/delivery"
	xauthUsecase "xpress-backend/internal/xauth/usecase"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	r *gin.Engine,
	authUc authUsecase.AuthUsecase,
	trackerUc trackerUsecase.TrackerUsecase,
	replyUc trackerUsecase.ReplyUsecase,
	dispatchUc trackerUsecase.DispatchUsecase,
	xauthUc xauthUsecase.XAuthUsecase,
) {
	authHandler := delivery.NewAuthHandler(authUc)
	trackerHandler := trackerDelivery.NewTrackerHandler(trackerUc, replyUc, dispatchUc)
	xauthHandler := xauthDelivery.NewXAuthHandler(xauthUc)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", delivery.AuthMiddleware(authUc), authHandler.Me)
		}

		// X assistant routes (protected)
		x := api.Group("/x")
		x.Use(delivery.AuthMiddleware(authUc))
		{
			// Account tracking
			x.POST("/track", trackerHandler.Track)
			x.DELETE("/track/:handle", trackerHandler.Untrack)
			x.GET("/tracked-accounts", trackerHandler.TrackedAccounts)

			// Reply drafting and approval
			x.POST("/posts/:id/suggest", trackerHandler.Suggest)
			x.PUT("/posts/:id/reply", trackerHandler.SaveDraft)
			x.POST("/posts/:id/approve", trackerHandler.Approve)
			x.DELETE("/posts/:id/approve", trackerHandler.Unapprove)

			// Approval queue and bulk dispatch
			x.GET("/queue", trackerHandler.Queue)
			x.POST("/queue/dispatch", trackerHandler.Dispatch)

			// Reply playground and profile context
			x.POST("/test-reply", trackerHandler.TestReply)
			x.GET("/context", trackerHandler.GetContext)
			x.PUT("/context", trackerHandler.SaveContext)

			// Delegated X accounts and direct publishing
			x.GET("/oauth/url", xauthHandler.AuthURL)
			x.GET("/accounts", xauthHandler.ListAccounts)
			x.DELETE("/accounts/:xid", xauthHandler.Disconnect)
			x.POST("/post", xauthHandler.Post)
		}

		// OAuth callback is unauthenticated; the state ties it to a user.
		api.GET("/x/oauth/callback", xauthHandler.Callback)
	}
}
