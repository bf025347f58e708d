package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/requestdata"
	"github.com/promptforge/promptforge-backend/internal/types"
)

type fakeAuthService struct {
	validToken string
	userID     uuid.UUID
}

func (f *fakeAuthService) RegisterUser(ctx context.Context, mobile, password, nickname string) (*types.User, error) {
	panic("not used")
}

func (f *fakeAuthService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString != f.validToken {
		return ctx, fmt.Errorf("invalid token")
	}
	return requestdata.WithRequestData(ctx, &requestdata.RequestData{
		TokenString: tokenString,
		UserID:      f.userID,
	}), nil
}

func (f *fakeAuthService) LoginUser(ctx context.Context, mobile, password string) (string, string, error) {
	panic("not used")
}

func (f *fakeAuthService) RefreshUser(ctx context.Context, refreshToken string) (string, string, error) {
	panic("not used")
}

func (f *fakeAuthService) LogoutUser(ctx context.Context) error { panic("not used") }
func (f *fakeAuthService) GetAccessTTL() time.Duration          { return time.Hour }

func newTestRouter(t *testing.T) (*gin.Engine, *fakeAuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := &fakeAuthService{validToken: "good-token", userID: uuid.New()}
	am := newAuthMiddlewareForTest(fake)

	router := gin.New()
	router.GET("/protected", am.RequireAuth(), func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": rd.UserID.String()})
	})
	return router, fake
}

func TestRequireAuthMissingToken(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRequireAuthBadToken(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestRequireAuthBearerHeader(t *testing.T) {
	router, fake := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+fake.validToken)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
}

func TestRequireAuthQueryToken(t *testing.T) {
	router, fake := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected?token="+fake.validToken, nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
}

// newAuthMiddlewareForTest wires the middleware against the fake without
// dragging the real service's dependencies into the test.
func newAuthMiddlewareForTest(fake *fakeAuthService) *AuthMiddleware {
	return &AuthMiddleware{
		log:         logger.NewNop(),
		authService: fake,
	}
}
