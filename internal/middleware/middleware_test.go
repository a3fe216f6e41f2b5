package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-workshops/backend/internal/auth"
	"github.com/aura-workshops/backend/internal/models"
)

func whoAmI(c *gin.Context) {
	id, email, ok := CurrentUser(c)
	if !ok {
		c.String(http.StatusOK, "anonymous")
		return
	}
	c.String(http.StatusOK, id.String()+" "+email)
}

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", append(handlers, whoAmI)...)
	return r
}

func TestOptionalJWT(t *testing.T) {
	svc := auth.NewJWTService("secret", time.Hour)
	r := newTestRouter(OptionalJWT(svc))
	userID := uuid.New()
	token, err := svc.Issue(userID, "jane@example.com", string(models.RoleAttendee))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "anonymous", w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String()+" jane@example.com", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?token="+token, nil))
	assert.Equal(t, userID.String()+" jane@example.com", w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTRequiresToken(t *testing.T) {
	svc := auth.NewJWTService("secret", time.Hour)
	r := newTestRouter(JWT(svc))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	svc := auth.NewJWTService("secret", time.Hour)
	r := newTestRouter(JWT(svc), RequireRole(models.RoleAdmin))

	attendee, err := svc.Issue(uuid.New(), "", string(models.RoleAttendee))
	require.NoError(t, err)
	admin, err := svc.Issue(uuid.New(), "", string(models.RoleAdmin))
	require.NoError(t, err)

	for token, want := range map[string]int{attendee: http.StatusForbidden, admin: http.StatusOK} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS("http://localhost:3000"))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOriginChecker(t *testing.T) {
	check := OriginChecker("http://localhost:3000, http://localhost:5173")
	assert.True(t, check("http://localhost:5173"))
	assert.True(t, check(""))
	assert.False(t, check("http://evil.example"))
	assert.True(t, OriginChecker("*")("http://anything"))
}
