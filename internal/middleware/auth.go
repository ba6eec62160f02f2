package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/varunSbabu/BloodLink/internal/config"
	"github.com/varunSbabu/BloodLink/internal/models"
	"github.com/varunSbabu/BloodLink/internal/utils"
)

// AdminAuthMiddleware creates a middleware that requires a valid admin JWT
// and that the referenced admin account still exists.
func AdminAuthMiddleware(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			utils.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ValidateAdminToken(parts[1], cfg.JWTSecret)
		if err != nil {
			utils.Unauthorized(c, "Invalid token: "+err.Error())
			c.Abort()
			return
		}

		var admin models.Admin
		if err := db.First(&admin, "id = ?", claims.AdminID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.Unauthorized(c, "Invalid token")
			} else {
				utils.InternalServerError(c, "Database error: "+err.Error())
			}
			c.Abort()
			return
		}

		c.Set("adminID", admin.ID)
		c.Next()
	}
}

// GetAdminIDFromContext returns the authenticated admin's ID, if any.
func GetAdminIDFromContext(c *gin.Context) (string, bool) {
	adminID, exists := c.Get("adminID")
	if !exists {
		return "", false
	}
	idStr, ok := adminID.(string)
	return idStr, ok
}
