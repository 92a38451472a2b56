package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodeStatus(t *testing.T) {
	cases := map[Code]int{
		NoFindUidField:              405,
		ApiKeyAuthorizationRequired: 401,
		OperationTimedOut:           505,
		UncategorizedError:          500,
		PeriodicNoteDoesNotExist:    404,
	}
	for code, want := range cases {
		if got := code.Status(); got != want {
			t.Errorf("%d.Status() = %d, want %d", code, got, want)
		}
	}
}

func TestEveryCodeHasMessage(t *testing.T) {
	for code, msg := range messages {
		if msg == "" {
			t.Errorf("code %d has empty message", code)
		}
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(OperationTimedOut, ""))
	if !IsCode(err, OperationTimedOut) {
		t.Fatal("expected IsCode to see through wrapping")
	}
	if IsCode(err, UncategorizedError) {
		t.Fatal("unexpected code match")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk gone")
	err := Wrap(UncategorizedError, cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable")
	}
	if err.Detail != "disk gone" {
		t.Errorf("detail = %q", err.Detail)
	}
}
