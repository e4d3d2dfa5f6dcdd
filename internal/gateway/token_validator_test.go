package gateway

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aniemarie21/maes-laboratory-system/pkg/config"
	"github.com/aniemarie21/maes-laboratory-system/pkg/types"
)

var testJWT = config.JWTConfig{SecretKey: "test-secret", Issuer: "maes-idp", Audience: "maes-lab"}

func signClaims(t *testing.T, secret string, method jwt.SigningMethod, claims *JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to create test token: %v", err)
	}
	return token
}

func validClaims(role string) *JWTClaims {
	now := time.Now()
	return &JWTClaims{
		UserID:   "user123",
		Username: "jdelacruz",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "maes-idp",
			Audience:  jwt.ClaimStrings{"maes-lab"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
}

func TestTokenValidator_ValidateJWT(t *testing.T) {
	validator := NewTokenValidator(testJWT)

	claims, err := validator.ValidateJWT(signClaims(t, "test-secret", jwt.SigningMethodHS256, validClaims("technician")))
	if err != nil {
		t.Fatalf("Failed to validate valid token: %v", err)
	}
	if claims.UserID != "user123" {
		t.Errorf("Expected UserID 'user123', got '%s'", claims.UserID)
	}
	if claims.Role != types.RoleTechnician {
		t.Errorf("Expected Role 'technician', got '%s'", claims.Role)
	}
}

func TestTokenValidator_ValidateJWT_Rejects(t *testing.T) {
	validator := NewTokenValidator(testJWT)

	expired := validClaims("patient")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := validClaims("patient")
	wrongIssuer.Issuer = "someone-else"

	noExpiry := validClaims("patient")
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "invalid-token"},
		{"wrong secret", signClaims(t, "wrong-secret", jwt.SigningMethodHS256, validClaims("patient"))},
		{"wrong algorithm", signClaims(t, "test-secret", jwt.SigningMethodHS512, validClaims("patient"))},
		{"expired", signClaims(t, "test-secret", jwt.SigningMethodHS256, expired)},
		{"no expiry", signClaims(t, "test-secret", jwt.SigningMethodHS256, noExpiry)},
		{"wrong issuer", signClaims(t, "test-secret", jwt.SigningMethodHS256, wrongIssuer)},
		{"unknown role", signClaims(t, "test-secret", jwt.SigningMethodHS256, validClaims("superuser"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := validator.ValidateJWT(tt.token); err == nil {
				t.Errorf("Expected error for %s token", tt.name)
			}
		})
	}
}

func TestTokenValidator_IssueToken(t *testing.T) {
	validator := NewTokenValidator(testJWT)

	token, err := validator.IssueToken(&types.UserClaims{UserID: "admin-1", Username: "admin", Role: types.RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}

	claims, err := validator.ValidateJWT(token)
	if err != nil {
		t.Fatalf("Issued token did not validate: %v", err)
	}
	if claims.UserID != "admin-1" || claims.Role != types.RoleAdmin {
		t.Errorf("Unexpected claims %+v", claims)
	}
}
