package router

import (
	"github.com/gin-gonic/gin"
	"github.com/noloworld/oribeti-app-sub000/internal/interfaces/http/handler"
)

// Handlers are the HTTP handlers served by the ledger API
type Handlers struct {
	Clients       *handler.ClientHandler
	Sales         *handler.SaleHandler
	Reports       *handler.ReportHandler
	Raffles       *handler.RaffleHandler
	Presence      *handler.PresenceHandler
	Notifications *handler.NotificationHandler
	System        *handler.SystemHandler
}

// LedgerGroups returns the route groups of the versioned API
func LedgerGroups(h Handlers) []RouteRegistrar {
	clients := NewDomainGroup("clients", "/clients").
		POST("", h.Clients.Create).
		GET("", h.Clients.List).
		GET("/:id", h.Clients.Get).
		PUT("/:id", h.Clients.Update).
		DELETE("/:id", h.Clients.Delete).
		GET("/:id/statement", h.Reports.Statement)

	sales := NewDomainGroup("sales", "/sales").
		POST("", h.Sales.Create).
		GET("", h.Sales.List).
		GET("/:id", h.Sales.Get).
		PUT("/:id", h.Sales.Update).
		DELETE("/:id", h.Sales.Delete).
		POST("/:id/recompute", h.Sales.Recompute).
		GET("/:id/payments", h.Sales.ListPayments).
		POST("/:id/payments", h.Sales.AddPayment)

	payments := NewDomainGroup("payments", "/payments").
		DELETE("/:id", h.Sales.DeletePayment)

	reports := NewDomainGroup("reports", "/reports").
		GET("/debtors", h.Reports.Debtors).
		GET("/top-spenders", h.Reports.TopSpenders).
		GET("/monthly/:year", h.Reports.Monthly).
		GET("/yearly", h.Reports.Yearly)

	raffles := NewDomainGroup("raffles", "/raffles").
		POST("", h.Raffles.Create).
		GET("", h.Raffles.List).
		GET("/:id", h.Raffles.Board).
		POST("/:id/tickets", h.Raffles.Claim)

	presence := NewDomainGroup("presence", "/presence").
		POST("/heartbeat", h.Presence.Heartbeat).
		DELETE("/heartbeat", h.Presence.Leave).
		GET("/online", h.Presence.Online)

	notifications := NewDomainGroup("notifications", "/notifications").
		GET("", h.Notifications.Feed).
		POST("/sweep", h.Notifications.Sweep)

	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.Info)

	return []RouteRegistrar{clients, sales, payments, reports, raffles, presence, notifications, system}
}

// Mount registers the probes at the root and the ledger API under /api/v1.
// apiMiddleware runs for API routes only.
func Mount(engine *gin.Engine, h Handlers, apiMiddleware ...gin.HandlerFunc) *Router {
	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(apiMiddleware...)
	r.Register(LedgerGroups(h)...)
	r.Setup()
	return r
}
