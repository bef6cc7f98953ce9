package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-jwt-middleware"

func init() {
	gin.SetMode(gin.TestMode)
}

func generateTestToken(claims jwt.MapClaims, secret string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(secret))
	return tokenString
}

func setupTestRouter(config *JWTConfig) *gin.Engine {
	router := gin.New()
	router.Use(JWTMiddleware(config))
	router.GET("/protected", func(c *gin.Context) {
		operatorID, _ := GetOperatorID(c)
		email, _ := GetEmail(c)
		role, _ := GetRole(c)
		c.JSON(http.StatusOK, gin.H{
			"operator_id": operatorID,
			"email":       email,
			"role":        role,
		})
	})
	router.GET("/admin", RequireRole(RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/skip", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "skipped"})
	})
	return router
}

func TestJWTMiddleware(t *testing.T) {
	config := &JWTConfig{
		Secret:    testSecret,
		Issuer:    "event-platform",
		SkipPaths: []string{"/skip"},
	}

	validClaims := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub":   "op-123",
			"email": "ops@example.com",
			"role":  RoleOperator,
			"iss":   "event-platform",
			"exp":   time.Now().Add(time.Hour).Unix(),
		}
	}

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{"valid token", "/protected", "Bearer " + generateTestToken(validClaims(), testSecret), http.StatusOK},
		{"missing authorization header", "/protected", "", http.StatusUnauthorized},
		{"invalid authorization header format", "/protected", "InvalidFormat", http.StatusUnauthorized},
		{"empty token after Bearer", "/protected", "Bearer ", http.StatusUnauthorized},
		{"malformed token", "/protected", "Bearer not-a-valid-jwt-token", http.StatusUnauthorized},
		{"invalid secret", "/protected", "Bearer " + generateTestToken(validClaims(), "wrong-secret"), http.StatusUnauthorized},
		{
			"expired token", "/protected",
			"Bearer " + generateTestToken(func() jwt.MapClaims {
				c := validClaims()
				c["exp"] = time.Now().Add(-time.Hour).Unix()
				return c
			}(), testSecret),
			http.StatusUnauthorized,
		},
		{
			"wrong issuer", "/protected",
			"Bearer " + generateTestToken(func() jwt.MapClaims {
				c := validClaims()
				c["iss"] = "someone-else"
				return c
			}(), testSecret),
			http.StatusUnauthorized,
		},
		{
			"missing subject", "/protected",
			"Bearer " + generateTestToken(func() jwt.MapClaims {
				c := validClaims()
				delete(c, "sub")
				return c
			}(), testSecret),
			http.StatusUnauthorized,
		},
		{"insufficient role", "/admin", "Bearer " + generateTestToken(validClaims(), testSecret), http.StatusForbidden},
		{"skip path", "/skip", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(config)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestJWTMiddleware_ClaimsExtracted(t *testing.T) {
	router := setupTestRouter(&JWTConfig{Secret: testSecret})
	token := generateTestToken(jwt.MapClaims{
		"sub":   "op-9",
		"email": "ops@example.com",
		"role":  RoleAdmin,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["operator_id"] != "op-9" || body["role"] != RoleAdmin || body["email"] != "ops@example.com" {
		t.Errorf("unexpected claims %v", body)
	}
}

func TestRequireRole_Unauthenticated(t *testing.T) {
	router := gin.New()
	router.GET("/admin", RequireRole(RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}
