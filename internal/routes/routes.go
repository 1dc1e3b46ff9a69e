// Package routes wires the HTTP handlers onto a gin engine.
package routes

import (
	"github.com/archgraph/core/internal/handlers"
	"github.com/archgraph/core/internal/session"
	"github.com/archgraph/core/internal/stage"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Deps struct {
	Manager   *session.Manager
	Catalog   *stage.Catalog
	Evaluator session.RemoteValidator
	Sessions  *handlers.SessionHandler
	Gatherer  prometheus.Gatherer
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/health", handlers.HealthCheck(deps.Manager.Len))
	router.POST("/parse", handlers.ParseHandler)

	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/v1")
	{
		v1.GET("/stages", handlers.ListStages(deps.Catalog))
		v1.GET("/stages/:stageId", handlers.GetStage(deps.Catalog))
		v1.POST("/validate", handlers.ValidateHandler(deps.Evaluator))

		h := deps.Sessions
		sessions := v1.Group("/sessions/:stageId/:userId")
		{
			sessions.PUT("", h.Open)
			sessions.GET("", h.GetSnapshot)
			sessions.DELETE("", h.End)
			sessions.GET("/graph", h.GetGraph)
			sessions.DELETE("/graph", h.Clear)
			sessions.POST("/nodes", h.AddNode)
			sessions.PATCH("/nodes/:nodeId", h.UpdateNode)
			sessions.DELETE("/nodes/:nodeId", h.DeleteNode)
			sessions.POST("/edges", h.AddEdge)
			sessions.DELETE("/edges/:edgeId", h.DeleteEdge)
			sessions.PUT("/requirements", h.SetRequirements)
			sessions.POST("/import", h.Import)
			sessions.POST("/remote-validate", h.RemoteValidate)
		}
	}
}
