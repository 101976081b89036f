package httpkit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eclipse_backend/platform/apperr"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type staticJWT string

func (s staticJWT) GetJWTAccessSecret() string { return string(s) }

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newAuthEngine(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/me", AuthRequired(staticJWT(secret)), func(c *gin.Context) {
		tenantID, ok := MustGetTenantID(c)
		if !ok {
			return
		}
		OK(c, gin.H{"user": GetIdentity(c).UserID().String(), "tenant": tenantID.String()})
	})
	return engine
}

func TestAuthRequiredAcceptsValidAccessToken(t *testing.T) {
	userID := uuid.New()
	tenantID := uuid.New()
	token := signToken(t, "s3cret", jwt.MapClaims{
		"sub":       userID.String(),
		"tenant_id": tenantID.String(),
		"type":      "access",
		"exp":       time.Now().Add(time.Minute).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAuthEngine("s3cret").ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRequiredRejectsRefreshTokens(t *testing.T) {
	token := signToken(t, "s3cret", jwt.MapClaims{
		"sub":  uuid.NewString(),
		"type": "refresh",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAuthEngine("s3cret").ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthRequiredWithoutTenantIsBadRequest(t *testing.T) {
	token := signToken(t, "s3cret", jwt.MapClaims{
		"sub":  uuid.NewString(),
		"type": "access",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	newAuthEngine("s3cret").ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthRequiredMissingHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	newAuthEngine("s3cret").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireRoleReadsTokenRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.PUT("/status", AuthRequired(staticJWT("s3cret")), RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		name  string
		roles []any
		want  int
	}{
		{"with role", []any{"sales", "admin"}, http.StatusNoContent},
		{"without role", []any{"sales"}, http.StatusForbidden},
		{"no roles claim", nil, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claims := jwt.MapClaims{
				"sub":       uuid.New().String(),
				"tenant_id": uuid.New().String(),
				"type":      "access",
				"exp":       time.Now().Add(time.Hour).Unix(),
			}
			if tc.roles != nil {
				claims["roles"] = tc.roles
			}
			req := httptest.NewRequest(http.MethodPut, "/status", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, "s3cret", claims))
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestHandleErrorMapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/nf", func(c *gin.Context) { HandleError(c, apperr.NotFound("client not found")) })
	engine.GET("/boom", func(c *gin.Context) { HandleError(c, errors.New("pool closed")) })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nf", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
