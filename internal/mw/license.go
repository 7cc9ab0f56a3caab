package mw

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pos-backend/internal/license"
)

// LicenseStatus reports the latest license check.
type LicenseStatus interface {
	Current() license.Validation
}

// LicenseGate answers 402 Payment Required while the latest check is not
// valid. The body carries the validation message and its expired flag.
func LicenseGate(status LicenseStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := status.Current()
		if v.Valid {
			c.Next()
			return
		}
		log.Debug().Err(v.Err).Str("path", c.FullPath()).Msg("request blocked by license gate")
		c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{"error": ErrorBody{
			Message: v.Message(),
			Expired: v.Expired,
		}})
	}
}
