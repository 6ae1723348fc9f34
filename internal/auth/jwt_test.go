package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	userID := uuid.New()

	token, err := svc.Generate(userID, "dana@example.com", "dana", "creator")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("user_id = %v, want %v", claims.UserID, userID)
	}
	if claims.Email != "dana@example.com" {
		t.Errorf("email = %q", claims.Email)
	}
	if claims.Role != "creator" {
		t.Errorf("role = %q, want creator", claims.Role)
	}
}

func TestJWTValidateErrors(t *testing.T) {
	svc := NewJWTService("test-secret", 1)

	if _, err := svc.Validate("not-a-token"); err == nil {
		t.Error("garbage token validated")
	}

	other := NewJWTService("other-secret", 1)
	token, err := other.Generate(uuid.New(), "a@b.c", "a", "creator")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := svc.Validate(token); err == nil {
		t.Error("token signed with a different secret validated")
	}

	expired := NewJWTService("test-secret", -1)
	token, err = expired.Generate(uuid.New(), "a@b.c", "a", "creator")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := svc.Validate(token); err == nil {
		t.Error("expired token validated")
	}
}
