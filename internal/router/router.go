package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/helpdesk-service/api"
	"github.com/psds-microservice/helpdesk-service/internal/handler"
	"github.com/psds-microservice/helpdesk-service/internal/middleware"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const pathSwagger = "/swagger"

type Handlers struct {
	Ticket *handler.TicketHandler
	Asset  *handler.AssetHandler
	Stock  *handler.StockHandler
	Audit  *handler.AuditHandler
}

func New(h Handlers) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", handler.Health)
	r.GET("/ready", handler.Ready)
	r.GET(pathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, pathSwagger+"/") })
	r.GET(pathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = pathSwagger + "/index.html"
			c.Request.RequestURI = pathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/openapi.json"))(c)
	})

	v1 := r.Group("/api/v1")
	v1.Use(middleware.WithActor())
	{
		v1.POST("/tickets", h.Ticket.Create)
		v1.GET("/tickets", h.Ticket.List)
		v1.GET("/tickets/:id", h.Ticket.Get)
		v1.PUT("/tickets/:id", h.Ticket.Update)
		v1.POST("/tickets/:id/close", h.Ticket.Close)
		v1.DELETE("/tickets/:id", h.Ticket.Delete)

		v1.POST("/tickets/:id/comments", h.Ticket.CreateComment)
		v1.GET("/tickets/:id/comments", h.Ticket.ListComments)
		v1.PUT("/comments/:comment_id", h.Ticket.UpdateComment)
		v1.DELETE("/comments/:comment_id", h.Ticket.DeleteComment)

		v1.POST("/assets", h.Asset.Create)
		v1.GET("/assets", h.Asset.List)
		v1.GET("/assets/:id", h.Asset.Get)
		v1.PUT("/assets/:id", h.Asset.Update)
		v1.DELETE("/assets/:id", h.Asset.Delete)
		v1.POST("/assets/bulk-import", h.Asset.BulkImport)
		v1.POST("/assets/bulk-delete", h.Asset.BulkDelete)

		v1.POST("/assets/:id/stock", h.Stock.Adjust)
		v1.GET("/assets/:id/stock/transactions", h.Stock.Transactions)
		v1.GET("/assets/stock/low", h.Stock.LowStock)

		v1.POST("/assets/scan", h.Audit.Scan)
		v1.GET("/audits", h.Audit.List)
	}

	return r
}
