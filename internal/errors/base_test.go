package errors

import (
	stderrors "errors"
	"testing"
)

func TestWrap(t *testing.T) {
	err := Wrap(errWrapped, "Hello, Wrapped!")
	if err.Error() != "Hello, Wrapped!, err: wrapped error" {
		t.Fatalf("error mismatch: %+v", err)
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, "ignored"); err != nil {
		t.Fatalf("expected nil, got: %+v", err)
	}
}

func TestIsThroughWrap(t *testing.T) {
	err := Wrap(Wrap(errWrapped, "inner"), "outer")
	if !Is(err, errWrapped) {
		t.Fatalf("sentinel not found through wrap chain: %+v", err)
	}
	if Is(err, stderrors.New("other")) {
		t.Fatal("matched an unrelated error")
	}
}

type codedError struct{ code int }

func (e *codedError) Error() string { return "coded" }

func TestAsThroughWrap(t *testing.T) {
	err := Wrap(&codedError{code: 7}, "outer")
	var coded *codedError
	if !As(err, &coded) {
		t.Fatalf("typed error not found through wrap chain: %+v", err)
	}
	if coded.code != 7 {
		t.Fatalf("code mismatch: %d", coded.code)
	}
}
