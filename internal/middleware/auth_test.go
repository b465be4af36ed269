package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newAuthRouter(verifier *Verifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/whoami", JWTAuth(verifier), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserID(c)})
	})
	return router
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	verifier := NewVerifier(testSecret)
	router := newAuthRouter(verifier)

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
}

func TestJWTAuthRejections(t *testing.T) {
	verifier := NewVerifier(testSecret)
	router := newAuthRouter(verifier)

	expired := signToken(t, testSecret, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	wrongKey := signToken(t, "other-secret", jwt.MapClaims{"sub": "alice"})
	noSubject := signToken(t, testSecret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
		{"wrong signature", "Bearer " + wrongKey},
		{"expired", "Bearer " + expired},
		{"missing subject", "Bearer " + noSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestVerifyQueryToken(t *testing.T) {
	verifier := NewVerifier(testSecret)

	token := signToken(t, testSecret, jwt.MapClaims{"sub": "bob"})
	userID, err := VerifyQueryToken(verifier, token)
	require.NoError(t, err)
	assert.Equal(t, "bob", userID)

	_, err = VerifyQueryToken(verifier, "junk")
	assert.Error(t, err)

	noSub := signToken(t, testSecret, jwt.MapClaims{"aud": "x"})
	_, err = VerifyQueryToken(verifier, noSub)
	assert.Error(t, err)
}
