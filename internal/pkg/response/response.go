// Package response shapes every HTTP reply into the one envelope the
// clients unwrap: {success, data} or {success: false, error}.
package response

import "github.com/gin-gonic/gin"

// Success writes the data envelope.
func Success(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// Error writes the error envelope with a machine-readable code.
func Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// ErrorWithDetails carries an extra detail payload, typically a
// field-to-reason map from validation.
func ErrorWithDetails(c *gin.Context, status int, code, message string, details any) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
