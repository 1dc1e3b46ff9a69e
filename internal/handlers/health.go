// Package handlers provides HTTP request handlers for the API endpoints.
// It defines the routing logic, response formatting, and error handling mechanisms.
package handlers

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Service   string            `json:"service"`
	Uptime    string            `json:"uptime,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

var startTime = time.Now()

// HealthCheck reports liveness. Sessions is a callback returning the number
// of live design sessions; it may be nil.
func HealthCheck(sessions func() int) gin.HandlerFunc {
	return func(c *gin.Context) {
		details := map[string]string{
			"go_version": runtime.Version(),
			"num_cpu":    strconv.Itoa(runtime.NumCPU()),
		}
		if sessions != nil {
			details["sessions"] = strconv.Itoa(sessions())
		}

		c.JSON(http.StatusOK, HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Service:   "archgraph-api",
			Uptime:    time.Since(startTime).String(),
			Details:   details,
		})
	}
}
