package handlers

import (
	"net/http"

	"shop_pos_backend/internal/services"
	"shop_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// operatorFromContext resolves the authenticated operator that the auth
// middleware stored in the request context. Responds 401 and returns false
// if the identity is missing.
func operatorFromContext(c *gin.Context) (services.Identity, bool) {
	userID, okUser := c.Get("userID")
	businessID, okBusiness := c.Get("businessID")
	if !okUser || !okBusiness {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated", "Missing identity in request context"))
		return services.Identity{}, false
	}

	identity := services.Identity{
		UserID:     userID.(int64),
		BusinessID: businessID.(int64),
	}
	if fullName, ok := c.Get("userFullName"); ok {
		if name, isStr := fullName.(string); isStr {
			identity.FullName = name
		}
	}
	return identity, true
}
