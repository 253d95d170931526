package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apiError "lumeer-engine/internal/errors"
)

func ErrorHandler(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next() // Execute the handler first

		// detect any errors
		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err

			apiErr, ok := apiError.As(err)
			if !ok {
				// If it's a raw error we didn't wrap, treat as Internal
				apiErr = apiError.Internal(err)
			}

			if apiErr.Code >= 500 {
				log.Error().Err(apiErr.Err).Str("path", c.FullPath()).Msg(apiErr.Message)
			} else {
				log.Info().Err(apiErr.Err).Str("path", c.FullPath()).Int("status", apiErr.Code).Msg(apiErr.Message)
			}

			c.AbortWithStatusJSON(apiErr.Code, apiErr)
		}
	}
}

// RequestLogger logs every request through the process logger.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request")
	}
}
