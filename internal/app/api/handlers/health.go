package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startedAt = time.Now()

type healthResp struct {
	Status        string  `json:"status"`
	Service       string  `json:"service"`
	UptimeSeconds float64 `json:"uptime"`
}

// @Summary      Health check
// @Description  Returns service status and uptime
// @Tags         System
// @Produce      json
// @Success      200  {object}  healthResp
// @Router       /health [get]
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResp{
		Status:        "ok",
		Service:       "mercadopago-mock",
		UptimeSeconds: time.Since(startedAt).Seconds(),
	})
}

func RegisterHealthRoutes(r gin.IRouter) {
	r.GET("/health", Health)
}
