// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"net/http"
	"strings"

	"github.com/AtRiskMedia/vsl-go/internal/application/services"
	"github.com/AtRiskMedia/vsl-go/internal/domain/attribution"
	"github.com/AtRiskMedia/vsl-go/internal/domain/tracking"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/security"
	"github.com/gin-gonic/gin"
)

const (
	// VisitorCookie holds the anonymous visitor id.
	VisitorCookie = "vsl_vid"
	// visitorCookieMaxAge is one year.
	visitorCookieMaxAge = 365 * 24 * 60 * 60

	visitorKey = "visitorId"
	visitKey   = "visit"
)

// VisitorMiddleware makes sure every request carries a visitor id, issuing
// a new one when the cookie is missing or was tampered with.
func VisitorMiddleware(secure bool, logger *logging.ChanneledLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID, err := c.Cookie(VisitorCookie)
		if err != nil || !security.IsULID(visitorID) {
			visitorID = security.GenerateULID()
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     VisitorCookie,
				Value:    visitorID,
				Path:     "/",
				MaxAge:   visitorCookieMaxAge,
				HttpOnly: true,
				Secure:   secure,
				SameSite: http.SameSiteLaxMode,
			})
			logger.HTTP().Debug("Issued visitor id", "visitorId", visitorID, "path", c.Request.URL.Path)
		}
		c.Set(visitorKey, visitorID)
		c.Next()
	}
}

// GetVisitorID retrieves the visitor id from gin context.
func GetVisitorID(c *gin.Context) string {
	return c.GetString(visitorKey)
}

// VisitMiddleware opens the visitor's attribution store for the request and
// binds a tracker to it. It must run after VisitorMiddleware.
func VisitMiddleware(attr *services.AttributionService, track *services.TrackingService, cookies CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID := GetVisitorID(c)

		var storage *CookieStorage
		if attr.UsesCookies() {
			storage = NewCookieStorage(c.Writer, c.Request, cookies)
		}
		store := attr.Open(visitorID, c.Request.URL.Query(), storageOrNil(storage))

		tracker := track.NewTracker(store, tracking.Visitor{
			ID:        visitorID,
			PageURL:   pageURL(c),
			UserAgent: c.Request.UserAgent(),
			ClientIP:  c.ClientIP(),
		})
		c.Set(visitKey, &services.Visit{VisitorID: visitorID, Store: store, Tracker: tracker})
		c.Next()
	}
}

// GetVisit retrieves the request's visit from gin context.
func GetVisit(c *gin.Context) (*services.Visit, bool) {
	v, exists := c.Get(visitKey)
	if !exists {
		return nil, false
	}
	visit, ok := v.(*services.Visit)
	return visit, ok
}

// storageOrNil avoids handing the store a typed nil.
func storageOrNil(s *CookieStorage) attribution.Storage {
	if s == nil {
		return nil
	}
	return s
}

// pageURL is the page the visitor is on. API calls come from the page named
// in the Referer header.
func pageURL(c *gin.Context) string {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return c.Request.Referer()
	}
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
}
