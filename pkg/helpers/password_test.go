package helpers

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	t.Cleanup(func() { PasswordCost = bcrypt.DefaultCost })

	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}
	if !CompareHashAndPassword(hash, "s3cret-pass") {
		t.Fatal("matching password rejected")
	}
	if CompareHashAndPassword(hash, "s3cret-pasS") {
		t.Fatal("wrong password accepted")
	}
	if CompareHashAndPassword("", "") {
		t.Fatal("empty hash matched")
	}
	if _, err := HashPassword(strings.Repeat("a", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("want ErrPasswordTooLong, got %v", err)
	}
}
