package api

import "github.com/gin-gonic/gin"

// registerRoutes wires spec.md §6's four admin routes, plus the
// GET /api/system host snapshot, onto a bare group, mirroring the
// teacher's RegisterRoutes grouping convention without its
// swagger/API-key/zone/cluster additions.
func registerRoutes(engine *gin.Engine, h *Handler) {
	api := engine.Group("/api")
	{
		api.GET("/statistics", h.listStatistics)
		api.GET("/statistics/:name", h.statisticByName)
		api.GET("/config", h.getConfig)
		api.POST("/config", h.putConfig)
		api.GET("/system", h.systemInfo)
	}
}
