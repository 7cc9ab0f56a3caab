package mw

import "github.com/gin-gonic/gin"

// ErrorBody is the payload of a failed bridge call.
type ErrorBody struct {
	Message string `json:"message"`
	Expired bool   `json:"expired,omitempty"`
}

// AbortWithError stops the chain with the {"error": {...}} envelope.
func AbortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": ErrorBody{Message: message}})
}
