package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wrenchworks/dispatch-api/internal/models"
	appErrors "github.com/wrenchworks/dispatch-api/pkg/errors"
)

// Envelope is the common response contract. Every failure carries
// success=false with a human-readable message; availability failures also
// carry the conflict list so clients can explain why a technician is busy.
type Envelope struct {
	Success   bool              `json:"success"`
	Data      interface{}       `json:"data,omitempty"`
	Message   string            `json:"message,omitempty"`
	Code      string            `json:"code,omitempty"`
	Conflicts []models.Conflict `json:"conflicts,omitempty"`
}

// JSON sends a success response.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.JSON(status, Envelope{Success: true, Data: data})
}

// OK responds with HTTP 200.
func OK(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, data)
}

// Error sends an error response converting the error to the common structure.
// Busy-technician errors surface their conflicts alongside the message.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	envelope := Envelope{Success: false, Message: appErr.Message, Code: appErr.Code}

	var availErr *models.AvailabilityError
	if errors.As(err, &availErr) {
		envelope.Conflicts = availErr.Conflicts
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, envelope)
}
