package auth

import (
	"context"
	"testing"
)

func TestWithBasicAuth(t *testing.T) {
	ctx := context.Background()
	user := "testuser"
	pass := "testpass"

	ctx = WithBasicAuth(ctx, user, pass)

	retrievedUser, retrievedPass, ok := GetBasicAuthCredentials(ctx)
	if !ok {
		t.Error("Expected basic auth credentials in context, but none found")
	}
	if retrievedUser != user {
		t.Errorf("Expected user %q, got %q", user, retrievedUser)
	}
	if retrievedPass != pass {
		t.Errorf("Expected pass %q, got %q", pass, retrievedPass)
	}
}

func TestGetBasicAuthCredentials_Missing(t *testing.T) {
	ctx := context.Background()

	user, pass, ok := GetBasicAuthCredentials(ctx)
	if ok {
		t.Error("Expected no basic auth credentials in context, but found some")
	}

	// Verify returned values are empty when ok=false
	if user != "" {
		t.Errorf("Expected empty username when no credentials, got %q", user)
	}
	if pass != "" {
		t.Errorf("Expected empty password when no credentials, got %q", pass)
	}
}

func TestHasAuth(t *testing.T) {
	ctx := context.Background()

	if HasAuth(ctx) {
		t.Error("Expected HasAuth to be false for a bare context")
	}

	ctx = WithBasicAuth(ctx, "user", "pass")
	if !HasAuth(ctx) {
		t.Error("Expected HasAuth to be true after WithBasicAuth")
	}
}

func TestWithBasicAuth_EmptyCredentials(t *testing.T) {
	// Empty strings are still stored; the middleware decides whether they are
	// acceptable before putting them into the context.
	ctx := WithBasicAuth(context.Background(), "", "")

	user, pass, ok := GetBasicAuthCredentials(ctx)
	if !ok {
		t.Error("Expected credentials in context even when empty")
	}
	if user != "" || pass != "" {
		t.Errorf("Expected empty credentials, got %q / %q", user, pass)
	}
}
