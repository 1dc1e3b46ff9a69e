package handlers

import (
	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// respond writes obj as JSON, indented when the request asks for ?pretty=true.
func respond(c *gin.Context, status int, obj any) {
	if c.Query("pretty") == "true" {
		c.IndentedJSON(status, obj)
		return
	}
	c.JSON(status, obj)
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}
