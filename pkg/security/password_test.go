package security_test

import (
	"strings"
	"testing"

	"github.com/marketly/marketly-backend/pkg/config"
	"github.com/marketly/marketly-backend/pkg/security"
)

func testParams() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("very-secure-password", testParams())
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestHashPasswordSaltsEachCall(t *testing.T) {
	first, _ := security.HashPassword("same", testParams())
	second, _ := security.HashPassword("same", testParams())
	if first == second {
		t.Fatal("expected distinct salts per hash")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	for _, bad := range []string{"not-a-hash", "$argon2id$v=18$m=1,t=1,p=1$AA$AA", "$argon2id$v=19$garbage$AA$AA"} {
		if _, err := security.VerifyPassword("irrelevant", bad); err == nil {
			t.Fatalf("expected error for malformed hash %q", bad)
		}
	}
}

func TestCheckPasswordPolicy(t *testing.T) {
	if err := security.CheckPasswordPolicy("12345"); err == nil {
		t.Fatal("expected short password to fail")
	}
	if err := security.CheckPasswordPolicy("123456"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
