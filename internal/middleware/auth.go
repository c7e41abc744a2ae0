package middleware

import (
	"context"
	"net/http"
	"strconv"

	"rentalhub/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PropertyOwnership is satisfied by the property repository.
type PropertyOwnership interface {
	BelongsToOwner(ctx context.Context, propertyID, ownerID int64) (bool, error)
}

// CheckPropertyOwnership verifies the user owns the property in URL param
// "id". Properties of other owners read as not found.
func CheckPropertyOwnership(checker PropertyOwnership, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt64("user_id")
		if userID == 0 {
			response.Abort(c, http.StatusUnauthorized, response.CodeUnauthorized, "Authentication required")
			return
		}

		propertyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || propertyID <= 0 {
			response.Abort(c, http.StatusBadRequest, response.CodeValidation, "Invalid property id")
			return
		}

		ok, err := checker.BelongsToOwner(c.Request.Context(), propertyID, userID)
		if err != nil {
			log.WithError(err).WithField("property_id", propertyID).Error("ownership check failed")
			_ = c.Error(err)
			response.Abort(c, http.StatusInternalServerError, response.CodeInternal, "Failed to verify ownership")
			return
		}
		if !ok {
			response.Abort(c, http.StatusNotFound, response.CodeNotFound, "Property not found")
			return
		}

		c.Next()
	}
}
