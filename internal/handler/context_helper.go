package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/sma-attendance-api/internal/middleware"
	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

const dateLayout = "2006-01-02"

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

// pathID returns the :key path parameter. Ids are UUIDs, so anything else
// cannot name an existing row and is reported as not found.
func pathID(c *gin.Context, key, notFound string) (string, error) {
	raw := strings.TrimSpace(c.Param(key))
	if _, err := uuid.Parse(raw); err != nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return raw, nil
}

// optionalDate parses a YYYY-MM-DD query parameter.
func optionalDate(c *gin.Context, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, appErrors.Validation(err, key+" must be formatted as YYYY-MM-DD")
	}
	return &parsed, nil
}

func staffFilterFromQuery(c *gin.Context) (models.StaffAttendanceFilter, error) {
	filter := models.StaffAttendanceFilter{
		AccountID: strings.TrimSpace(c.Query("account_id")),
		Grade:     strings.TrimSpace(c.Query("grade")),
	}
	if filter.AccountID != "" {
		if _, err := uuid.Parse(filter.AccountID); err != nil {
			return filter, appErrors.Validation(err, "account_id must be a UUID")
		}
	}
	var err error
	if filter.Date, err = optionalDate(c, "date"); err != nil {
		return filter, err
	}
	if filter.DateFrom, err = optionalDate(c, "from"); err != nil {
		return filter, err
	}
	if filter.DateTo, err = optionalDate(c, "to"); err != nil {
		return filter, err
	}
	return filter, nil
}
