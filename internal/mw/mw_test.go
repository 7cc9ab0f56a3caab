package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"pos-backend/internal/license"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string, header http.Header) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	r.ServeHTTP(w, req)
	return w
}

func TestCache(t *testing.T) {
	calls := 0
	r := gin.New()
	r.Use(Cache(cache.New(time.Minute, time.Minute), time.Minute))
	r.GET("/hwid", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/fail", func(c *gin.Context) {
		calls++
		c.Status(http.StatusInternalServerError)
	})

	first := serve(r, http.MethodGet, "/hwid", nil)
	second := serve(r, http.MethodGet, "/hwid", nil)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, `{"calls":1}`, second.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", second.Header().Get("Content-Type"))

	withSession := serve(r, http.MethodGet, "/hwid", http.Header{"Authorization": {"Bearer x"}})
	assert.JSONEq(t, `{"calls":2}`, withSession.Body.String())
	assert.Empty(t, withSession.Header().Get("X-Cache"))

	serve(r, http.MethodGet, "/fail", nil)
	serve(r, http.MethodGet, "/fail", nil)
	assert.Equal(t, 4, calls)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(rate.Limit(1), 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/", nil).Code)
	limited := serve(r, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.JSONEq(t, `{"error":{"message":"too many requests"}}`, limited.Body.String())
}

func TestIPRateLimiter_SameLimiterPerIP(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	a := l.GetLimiter("10.0.0.1")
	assert.Same(t, a, l.GetLimiter("10.0.0.1"))
	assert.Same(t, a, l.AddIP("10.0.0.1"))
	assert.NotSame(t, a, l.GetLimiter("10.0.0.2"))
}

type fixedStatus license.Validation

func (f fixedStatus) Current() license.Validation { return license.Validation(f) }

func TestLicenseGate(t *testing.T) {
	testCases := []struct {
		name     string
		status   license.Validation
		code     int
		expected string
	}{
		{name: "valid", status: license.Validation{Valid: true, Class: license.ClassFull}, code: http.StatusOK, expected: `{"ok":true}`},
		{name: "none", status: license.Validation{Err: license.ErrNoLicense}, code: http.StatusPaymentRequired,
			expected: `{"error":{"message":"` + license.ErrNoLicense.Error() + `"}}`},
		{name: "expired", status: license.Validation{Err: license.ErrExpired, Expired: true}, code: http.StatusPaymentRequired,
			expected: `{"error":{"message":"` + license.ErrExpired.Error() + `","expired":true}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(LicenseGate(fixedStatus(tc.status)))
			r.GET("/api/pos/items", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

			w := serve(r, http.MethodGet, "/api/pos/items", nil)
			require.Equal(t, tc.code, w.Code)
			assert.JSONEq(t, tc.expected, w.Body.String())
		})
	}
}

func TestRequestLogger(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	assert.Equal(t, http.StatusTeapot, serve(r, http.MethodGet, "/", nil).Code)
}
