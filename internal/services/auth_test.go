package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/promptforge/promptforge-backend/internal/logger"
	"github.com/promptforge/promptforge-backend/internal/requestdata"
)

func newTestAuthService(secret string) AuthService {
	return NewAuthService(nil, logger.NewNop(), nil, nil, secret, time.Hour, 24*time.Hour)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestSetContextFromToken(t *testing.T) {
	svc := newTestAuthService("test-secret")
	userID := uuid.New()

	tokenString := signToken(t, "test-secret", jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	ctx, err := svc.SetContextFromToken(context.Background(), tokenString)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID != userID {
		t.Fatalf("request data = %+v", rd)
	}
}

func TestSetContextFromTokenRejectsExpired(t *testing.T) {
	svc := newTestAuthService("test-secret")

	tokenString := signToken(t, "test-secret", jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})

	if _, err := svc.SetContextFromToken(context.Background(), tokenString); err == nil {
		t.Fatal("expired token should be rejected")
	}
}

func TestSetContextFromTokenRejectsWrongSecret(t *testing.T) {
	svc := newTestAuthService("test-secret")

	tokenString := signToken(t, "other-secret", jwt.MapClaims{
		"user_id": uuid.NewString(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	if _, err := svc.SetContextFromToken(context.Background(), tokenString); err == nil {
		t.Fatal("token signed with wrong secret should be rejected")
	}
}

func TestSetContextFromTokenRejectsGarbage(t *testing.T) {
	svc := newTestAuthService("test-secret")
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := svc.SetContextFromToken(context.Background(), tok); err == nil {
			t.Errorf("token %q should be rejected", tok)
		}
	}
}
