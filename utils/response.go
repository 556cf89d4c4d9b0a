package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BekaChkhiro/rideway-api-sub002/pkg/apperrors"
)

// RespondSuccess wraps data in the standard success envelope.
func RespondSuccess(c *gin.Context, data interface{}, meta interface{}) {
	body := gin.H{"success": true, "data": data}
	if meta != nil {
		body["meta"] = meta
	}
	c.JSON(http.StatusOK, body)
}

// RespondError maps the error taxonomy onto HTTP statuses. Unknown errors
// are hidden behind a generic message.
func RespondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	c.JSON(status, gin.H{"error": message, "code": string(apperrors.CodeOf(err))})
}
