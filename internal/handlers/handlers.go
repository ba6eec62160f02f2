package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/varunSbabu/BloodLink/internal/registry"
	"github.com/varunSbabu/BloodLink/internal/utils"
)

// respondRegistryError maps registry error kinds to HTTP responses:
// validation and business-rule violations to 400, credential failures to
// 401, missing entities and links to 404, everything else to 500.
func respondRegistryError(c *gin.Context, err error) {
	var verr *registry.ValidationError
	if errors.As(err, &verr) {
		utils.BadRequest(c, verr.Fields)
		return
	}

	switch {
	case errors.Is(err, registry.ErrDuplicatePhone),
		errors.Is(err, registry.ErrAlreadyLinked),
		errors.Is(err, registry.ErrIncompatibleBloodType),
		errors.Is(err, registry.ErrInvalidStatus),
		errors.Is(err, registry.ErrInvalidTransition):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, registry.ErrInvalidCredentials):
		utils.Unauthorized(c, err.Error())
	case errors.Is(err, registry.ErrDonorNotFound),
		errors.Is(err, registry.ErrRequestNotFound),
		errors.Is(err, registry.ErrLinkNotFound):
		utils.NotFound(c, err.Error())
	default:
		utils.InternalServerError(c, "Server Error: "+err.Error())
	}
}
