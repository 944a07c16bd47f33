package main

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/sudo-init-do/gigledger/internal/admin"
	"github.com/sudo-init-do/gigledger/internal/alerts"
	"github.com/sudo-init-do/gigledger/internal/auth"
	"github.com/sudo-init-do/gigledger/internal/config"
	"github.com/sudo-init-do/gigledger/internal/logger"
	"github.com/sudo-init-do/gigledger/internal/marketplace"
	mware "github.com/sudo-init-do/gigledger/internal/middleware"
	"github.com/sudo-init-do/gigledger/internal/store"
	"github.com/sudo-init-do/gigledger/internal/user"
	"github.com/sudo-init-do/gigledger/internal/wallet"
)

// readinessCheck reports a dependency that is not serving.
type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

type deps struct {
	cfg     config.Config
	log     *logger.Logger
	backend store.Backend
	ledger  *marketplace.Service
	checks  []readinessCheck
}

func newRouter(d deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "gigledger"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		for _, rc := range d.checks {
			if err := rc.check(c.Request().Context()); err != nil {
				d.log.Warn("readiness check failed", "dependency", rc.name, "error", err)
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": rc.name + " unreachable"})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	authH := auth.NewHandler(d.backend, d.cfg.JWTSecret, d.cfg.TokenTTL, d.log)
	userH := user.NewHandler(d.backend, d.ledger, d.log)
	walletH := wallet.NewHandler(d.backend, d.log)
	alertsH := alerts.NewHandler(d.backend, d.log)
	marketH := marketplace.NewHandler(d.ledger, d.log)
	adminH := admin.NewHandler(d.ledger, d.log)

	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(d.cfg.AuthRateLimit))))
	authGroup.POST("/signup", authH.Signup)
	authGroup.POST("/login", authH.Login)

	// Public reads
	e.GET("/owner", marketH.Owner)
	e.GET("/jobs", marketH.ListJobs)
	e.GET("/jobs/:id", marketH.GetJob)
	e.GET("/jobs/:id/bids", marketH.ListBids)
	e.GET("/jobs/:id/bids/:freelancer", marketH.GetBid)
	e.GET("/jobs/:id/escrow", marketH.EscrowBalance)
	e.GET("/disputes/:id", marketH.GetDispute)
	e.GET("/users/:id/rating", marketH.UserRating)
	e.GET("/users/:id/profile", userH.GetPublicProfile)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWTMiddleware(d.cfg.JWTSecret))

	api.GET("/auth/me", authH.Me)
	api.PUT("/users/me/profile", userH.UpdateProfile)
	api.PUT("/users/me/skills", userH.UpdateSkills)

	api.GET("/wallet/balance", walletH.Balance)
	api.GET("/wallet/transactions", walletH.Transactions)
	api.POST("/wallet/topup", walletH.Topup)
	api.POST("/wallet/withdraw", walletH.Withdraw)

	api.POST("/jobs", marketH.PostJob)
	api.POST("/jobs/:id/cancel", marketH.CancelJob)
	api.POST("/jobs/:id/bids", marketH.SubmitBid)
	api.POST("/jobs/:id/accept", marketH.AcceptBid)
	api.POST("/jobs/:id/complete", marketH.CompleteJob)
	api.POST("/jobs/:id/disputes", marketH.OpenDispute)
	api.POST("/jobs/:id/rate", marketH.RateJob)

	api.GET("/notifications", alertsH.ListNotifications)
	api.POST("/notifications/:id/read", alertsH.MarkNotificationRead)

	// Owner routes
	ownerGroup := e.Group("/admin")
	ownerGroup.Use(mware.JWTMiddleware(d.cfg.JWTSecret))
	ownerGroup.Use(mware.RequireRoles(auth.RoleOwner))

	ownerGroup.GET("/stats", adminH.Stats)
	ownerGroup.GET("/disputes", adminH.ListDisputes)
	ownerGroup.POST("/disputes/:id/resolve", adminH.ResolveDispute)
	ownerGroup.GET("/transactions/user/:id", walletH.AdminUserTransactions)

	return e
}
