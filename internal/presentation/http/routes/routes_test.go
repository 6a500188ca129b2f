package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/AtRiskMedia/vsl-go/internal/application/container"
	"github.com/AtRiskMedia/vsl-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vsl-go/internal/presentation/http/middleware"
	"github.com/AtRiskMedia/vsl-go/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pageViewAttr = regexp.MustCompile(`data-page-view="([^"]+)"`)

type testApp struct {
	router    *gin.Engine
	container *container.Container
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	t.Setenv("DB_PATH", filepath.Join(dir, "vsl.db"))
	t.Setenv("MEDIA_DIR", filepath.Join(dir, "media"))
	t.Setenv("COOKIE_SECRET", "route-test-cookie-secret")
	t.Setenv("ADMIN_PASSWORD", "s3nha-admin")
	t.Setenv("JWT_SECRET", "route-test-jwt-secret")
	t.Setenv("BROTLI", "false")
	t.Setenv("PUBLIC_URL", "https://vsl.test")

	cfg, err := config.Parse()
	require.NoError(t, err)

	c, err := container.NewContainer(context.Background(), cfg, logging.NewDiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return &testApp{router: SetupRoutes(c), container: c}
}

// do sends a request carrying cookies and returns the recorder.
func (a *testApp) do(method, target, body string, cookies []*http.Cookie, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// land opens the landing page and returns the visitor's cookies and page view.
func (a *testApp) land(t *testing.T, query string) ([]*http.Cookie, string) {
	t.Helper()
	w := a.do(http.MethodGet, "/"+query, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	m := pageViewAttr.FindStringSubmatch(w.Body.String())
	require.Len(t, m, 2)
	return w.Result().Cookies(), m[1]
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, ck := range cookies {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestLandingPage(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/?utm_source=ig&utm_campaign=spring", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Header().Get("Link"), "https://www.youtube.com")
	assert.NotNil(t, cookieNamed(w.Result().Cookies(), middleware.VisitorCookie))

	body := w.Body.String()
	assert.Regexp(t, pageViewAttr, body)
	assert.Contains(t, body, "utm_source=ig")
	assert.Contains(t, body, "utm_campaign=spring")
}

func TestAttributionCarriesAcrossRequests(t *testing.T) {
	app := newTestApp(t)
	cookies, _ := app.land(t, "?utm_source=ig&utm_medium=social")

	w := app.do(http.MethodGet, "/api/v1/attribution", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ig"`)
	assert.Contains(t, w.Body.String(), `"social"`)

	t.Run("annotate link", func(t *testing.T) {
		w := app.do(http.MethodPost, "/api/v1/links/annotate", `{"url":"/checkout?product=2#form","overrides":{"utm_content":"hero"}}`, cookies)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			URL string `json:"url"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Contains(t, resp.URL, "product=2")
		assert.Contains(t, resp.URL, "utm_source=ig")
		assert.Contains(t, resp.URL, "utm_content=hero")
		assert.True(t, strings.HasSuffix(resp.URL, "#form"))
	})

	t.Run("missing url", func(t *testing.T) {
		w := app.do(http.MethodPost, "/api/v1/links/annotate", `{}`, cookies)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBeacons(t *testing.T) {
	app := newTestApp(t)
	cookies, pageViewID := app.land(t, "")

	t.Run("scroll milestones", func(t *testing.T) {
		w := app.do(http.MethodPost, "/api/v1/track/scroll", `{"pageViewId":"`+pageViewID+`","percent":60}`, cookies)
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.JSONEq(t, `{"tracked":2}`, w.Body.String())

		w = app.do(http.MethodPost, "/api/v1/track/scroll", `{"pageViewId":"`+pageViewID+`","percent":55}`, cookies)
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.JSONEq(t, `{"tracked":0}`, w.Body.String())
	})

	t.Run("other visitor", func(t *testing.T) {
		w := app.do(http.MethodPost, "/api/v1/track/scroll", `{"pageViewId":"`+pageViewID+`","percent":95}`, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("video play without body", func(t *testing.T) {
		w := app.do(http.MethodPost, "/api/v1/track/video-play", "", cookies)
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.JSONEq(t, `{"tracked":1}`, w.Body.String())
	})

	t.Run("cta without name", func(t *testing.T) {
		w := app.do(http.MethodPost, "/api/v1/track/cta-click", `{"pageViewId":"`+pageViewID+`"}`, cookies)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown kind", func(t *testing.T) {
		w := app.do(http.MethodPost, "/api/v1/track/teleport", `{}`, cookies)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := app.do(http.MethodPost, "/api/v1/track/scroll", `{"percent":`, cookies)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProducts(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Products []struct {
			ID    string `json:"id"`
			Price string `json:"price"`
		} `json:"products"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Products, 2)
	assert.Equal(t, "1", resp.Products[0].ID)
	assert.Equal(t, "197.00", resp.Products[0].Price)
}

func TestCheckoutToThankYou(t *testing.T) {
	app := newTestApp(t)
	cookies, _ := app.land(t, "?utm_source=fb")

	const form = `{"name":"Maria Silva","email":"Maria@Example.com","document":"529.982.247-25","phone":"(11) 98765-4321","postcode":"01310-100","productId":"1"}`

	w := app.do(http.MethodPost, "/api/v1/checkout", form, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result struct {
		OrderID  string `json:"orderId"`
		Amount   string `json:"amount"`
		Redirect string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, strings.HasPrefix(result.OrderID, "VSL-"))
	assert.Equal(t, "197.00", result.Amount)
	assert.Contains(t, result.Redirect, "order="+result.OrderID)

	t.Run("thank you tracks purchase once", func(t *testing.T) {
		target := "/obrigado?order=" + result.OrderID + "&product=1"
		w := app.do(http.MethodGet, target, "", cookies)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), result.OrderID)

		w = app.do(http.MethodGet, target, "", cookies)
		require.Equal(t, http.StatusOK, w.Code)

		app.container.Dispatcher.Wait()
		events, err := app.container.AnalyticsService.Recent(10, "purchase")
		require.NoError(t, err)
		assert.Len(t, events, 1)
	})

	t.Run("unknown order still renders", func(t *testing.T) {
		w := app.do(http.MethodGet, "/obrigado?order=VSL-1", "", cookies)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestCheckoutRejections(t *testing.T) {
	app := newTestApp(t)
	cookies, _ := app.land(t, "")

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{"email":"a@b.com","document":"52998224725","phone":"11987654321","productId":"1"}`, "name"},
		{"bad cpf", `{"name":"Maria Silva","email":"a@b.com","document":"111.111.111-11","phone":"11987654321","productId":"1"}`, "document"},
		{"unknown product", `{"name":"Maria Silva","email":"a@b.com","document":"52998224725","phone":"11987654321","productId":"9"}`, "productId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.do(http.MethodPost, "/api/v1/checkout", tt.body, cookies)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.field, resp["field"])
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestTranscriptMissing(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/api/v1/video/transcript", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	app := newTestApp(t)

	t.Run("requires token", func(t *testing.T) {
		w := app.do(http.MethodGet, "/api/v1/admin/status", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		w := app.do(http.MethodPost, "/api/v1/admin/login", `{"password":"nope"}`, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	w := app.do(http.MethodPost, "/api/v1/admin/login", `{"password":"s3nha-admin"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)
	admin := cookieNamed(w.Result().Cookies(), middleware.AdminCookie)
	require.NotNil(t, admin)

	t.Run("status with bearer token", func(t *testing.T) {
		w := app.do(http.MethodGet, "/api/v1/admin/status", "", nil, "Authorization", "Bearer "+login.Token)
		require.Equal(t, http.StatusOK, w.Code)

		var status struct {
			Sinks []string `json:"sinks"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
		assert.ElementsMatch(t, []string{"live", "store"}, status.Sinks)
	})

	t.Run("summary with cookie", func(t *testing.T) {
		w := app.do(http.MethodGet, "/api/v1/admin/summary?window=1h", "", []*http.Cookie{admin})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad summary window", func(t *testing.T) {
		w := app.do(http.MethodGet, "/api/v1/admin/summary?window=soon", "", []*http.Cookie{admin})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("transcription disabled", func(t *testing.T) {
		w := app.do(http.MethodPost, "/api/v1/admin/video/transcribe", "", []*http.Cookie{admin})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
