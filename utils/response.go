package utils

import "github.com/gin-gonic/gin"

// MessageResponse is the body of every status-only reply.
type MessageResponse struct {
	Message string `json:"message"`
}

// Message writes {"message": message} with the given status.
func Message(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, MessageResponse{Message: message})
}

// Error writes a failure message. Callers in middleware still abort the chain themselves.
func Error(ctx *gin.Context, status int, message string) {
	Message(ctx, status, message)
}
