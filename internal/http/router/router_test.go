package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apphttp "eclipse_backend/internal/http"
	"eclipse_backend/platform/config"
	"eclipse_backend/platform/httpkit"
	"eclipse_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "router-secret"

type stubHealth struct{ err error }

func (s stubHealth) Ping(context.Context) error { return s.err }

type echoModule struct{}

func (echoModule) Name() string { return "echo" }

func (echoModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/echo", func(c *gin.Context) {
		tenantID, ok := httpkit.MustGetTenantID(c)
		if !ok {
			return
		}
		httpkit.OK(c, gin.H{"tenant": tenantID.String()})
	})
}

func newTestApp(health apphttp.HealthChecker) *apphttp.App {
	gin.SetMode(gin.TestMode)
	return &apphttp.App{
		Config: &config.Config{
			JWTAccessSecret: testSecret,
			CORSOrigins:     []string{"http://localhost:3000"},
		},
		Logger:  logger.Discard(),
		Health:  health,
		Modules: []apphttp.Module{echoModule{}},
	}
}

func serve(engine *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(New(newTestApp(stubHealth{})), "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("expected security headers on every response")
	}

	rec = serve(New(newTestApp(stubHealth{err: errors.New("db down")})), "/api/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	engine := New(newTestApp(stubHealth{}))

	if rec := serve(engine, "/api/v1/echo", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       uuid.NewString(),
		"tenant_id": uuid.NewString(),
		"type":      "access",
		"exp":       time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if rec := serve(engine, "/api/v1/echo", signed); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d: %s", rec.Code, rec.Body.String())
	}
}
