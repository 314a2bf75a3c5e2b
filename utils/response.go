package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatusConfirmed marks a mutation whose write has committed.
const StatusConfirmed = "confirmed"

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Status  string      `json:"status,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, 0, "success", data)
}

// Confirmed answers a mutation after its transaction committed. Clients
// holding an optimistic copy settle it on this status.
func Confirmed(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, JSONResponse{
		Code:    0,
		Message: "success",
		Status:  StatusConfirmed,
		Data:    data,
	})
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}
