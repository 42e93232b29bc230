package middleware

import (
	"context"
	"course_sync/internal/model"
	"course_sync/internal/repository"
	"course_sync/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequireUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := repository.NewUserRepository(repository.NewMemoryKVStore())

	r := gin.New()
	r.GET("/me", RequireUser(users), func(c *gin.Context) {
		c.String(http.StatusOK, util.GetUserFromContext(c).Username)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user, got %d", w.Code)
	}

	users.Save(context.Background(), &model.User{ID: "1", Username: "alice"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if w.Code != http.StatusOK || w.Body.String() != "alice" {
		t.Errorf("expected alice, got %d %q", w.Code, w.Body.String())
	}
}
