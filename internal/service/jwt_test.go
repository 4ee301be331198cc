package service

import (
	"os"
	"testing"
)

func TestJWTRoundTrip(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	token, err := GenerateJWT("viewer-42")
	if err != nil {
		t.Fatal(err)
	}

	sub, err := ParseJWT(token)
	if err != nil {
		t.Fatal(err)
	}
	if sub != "viewer-42" {
		t.Fatalf("sub = %q", sub)
	}
}

func TestParseJWTRejectsGarbage(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret")
	InitJWT()

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := ParseJWT(tok); err == nil {
			t.Errorf("ParseJWT(%q) should fail", tok)
		}
	}
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	os.Setenv("JWT_SECRET", "secret-a")
	InitJWT()
	token, err := GenerateJWT("viewer")
	if err != nil {
		t.Fatal(err)
	}

	os.Setenv("JWT_SECRET", "secret-b")
	InitJWT()
	if _, err := ParseJWT(token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}
