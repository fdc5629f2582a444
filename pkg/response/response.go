package response

import (
	"net/http"
	"strconv"

	"anoa.com/dailydebate/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uint, error) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, apperror.ErrUnauthorized
	}

	s, ok := raw.(string)
	if !ok {
		return 0, apperror.ErrUnauthorized
	}

	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.ErrUnauthorized
	}

	return uint(id), nil
}

// OptionalUserID returns nil for anonymous callers.
func OptionalUserID(c *gin.Context) *uint {
	id, err := GetUserID(c)
	if err != nil {
		return nil
	}
	return &id
}

// ParamID parses a positive numeric path parameter.
func ParamID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Invalid("invalid " + name)
	}
	return uint(id), nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("internal error")
		c.JSON(code, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
