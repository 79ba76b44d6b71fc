package api

import (
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"

	"venu/cmd/middleware"
	"venu/internal/service"
)

type Routers struct {
	Service *service.Service
	// JWTSecret verifies staff bearer tokens issued by the external
	// identity provider.
	JWTSecret string
	// ResourceRoot is the directory resource file paths resolve against.
	ResourceRoot string
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())

	h := &handlers{svc: r.Service, resourceRoot: r.ResourceRoot}

	apiGroup := app.Group("/v1")

	// Public: the registration token is the only credential.
	apiGroup.GET("/events", h.ListEvents)
	apiGroup.GET("/events/:slug", h.EventDetail)
	apiGroup.POST("/events/:slug/register", h.Register)
	apiGroup.POST("/find-ticket", h.FindTicket)
	apiGroup.GET("/tickets/:token", h.Ticket)
	apiGroup.GET("/tickets/:token/portal", h.Portal)
	apiGroup.GET("/tickets/:token/resources/:id/download", h.Download)
	apiGroup.POST("/tickets/:token/check-in", h.SelfCheckIn)

	staff := apiGroup.Group("", middleware.StaffAuth(r.JWTSecret))
	staff.POST("/events", h.CreateEvent)
	staff.GET("/events/:slug/dashboard", h.Dashboard)
	staff.POST("/registrations/:id/approve", h.Approve)
	staff.POST("/registrations/:id/reject", h.Reject)
	staff.POST("/scan/:token", h.Scan)

	return app
}
