package controllers

import (
	"net/http"

	"barberpro-backend/services"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	Dashboard *services.Dashboard
}

// GetDashboard returns the cached overview. X-Cache tells whether it was
// served from cache.
func (dc *DashboardController) GetDashboard(c *gin.Context) {
	stats, cached, err := dc.Dashboard.Stats(c.Request.Context())
	if err != nil {
		respondDataError(c, "GetDashboard", "obtener el resumen", err, "")
		return
	}
	if cached {
		c.Header("X-Cache", "HIT")
	} else {
		c.Header("X-Cache", "MISS")
	}
	c.JSON(http.StatusOK, stats)
}
