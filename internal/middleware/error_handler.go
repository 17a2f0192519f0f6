package middleware

import (
	"errors"
	"net/http"
	"time"

	"vendapos/internal/apierror"
	"vendapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// RequestID tags every request; clients may supply their own for tracing
// offline replays end to end.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// Logger emits one structured line per request.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		event := log.Info()
		if c.Writer.Status() >= 500 {
			event = log.Error()
		} else if c.Writer.Status() >= 400 {
			event = log.Warn()
		}
		event.
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// Recovery converts panics into 500 responses without killing the process.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("request_id", c.GetString("request_id")).
					Str("path", c.Request.URL.Path).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("internal server error"))
			}
		}()
		c.Next()
	}
}

// ErrorHandler maps domain errors attached via c.Error to HTTP statuses, so
// handlers stay free of status-code plumbing.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, msg := mapError(err)
		c.JSON(status, apierror.New(msg))
	}
}

func mapError(err error) (int, string) {
	var stockErr *service.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return http.StatusConflict, stockErr.Error()
	case errors.Is(err, service.ErrSessionAlreadyOpen),
		errors.Is(err, service.ErrSaleAlreadyCancelled),
		errors.Is(err, service.ErrSKUTaken),
		errors.Is(err, service.ErrCouponCodeTaken),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrInvalidOrderTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrNoOpenSession),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrMissingSKU),
		errors.Is(err, service.ErrInsufficientPayment),
		errors.Is(err, service.ErrCouponInvalid):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "resource not found"
	default:
		log.Error().Err(err).Msg("unhandled error")
		return http.StatusInternalServerError, "internal server error"
	}
}
