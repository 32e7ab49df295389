package utils

import "github.com/gin-gonic/gin"

// RespondWithError aborts the request with a JSON error body.
func RespondWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// RespondWithFields aborts with a per-field error map, used for form validation.
func RespondWithFields(c *gin.Context, code int, message string, fields map[string]string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message, "fields": fields})
}
