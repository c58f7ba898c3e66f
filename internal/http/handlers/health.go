// Package handlers holds the gin endpoint handlers for the API server.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
