package schema

import (
	"errors"
	"testing"
)

func TestValidateUserID(t *testing.T) {
	for _, ok := range []UserID{"alice", "bob.smith", "ci-runner_2"} {
		if err := ValidateUserID(ok); err != nil {
			t.Fatalf("ValidateUserID(%q) = %v", ok, err)
		}
	}
	for _, bad := range []UserID{"", "Alice", " bob", "eve/../x", "dave smith"} {
		if err := ValidateUserID(bad); !errors.Is(err, ErrInvalidUser) {
			t.Fatalf("ValidateUserID(%q) = %v, want ErrInvalidUser", bad, err)
		}
	}
}
