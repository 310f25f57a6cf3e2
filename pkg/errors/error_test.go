package errors

import (
	stderrors "errors"
	"net/http"
	"testing"
)

func TestNewUsesDefaultMessage(t *testing.T) {
	err := New(AlreadySolved)
	if err.Code != AlreadySolved {
		t.Fatalf("code = %d", err.Code)
	}
	if err.Error() != AlreadySolved.Message() {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrapf(cause, DatabaseError, "get user failed")
	if !stderrors.Is(err, cause) {
		t.Fatal("wrapped cause lost")
	}
	if GetCode(err) != DatabaseError {
		t.Fatalf("code = %d", GetCode(err))
	}
	if err.Error() != "get user failed" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestGetCode(t *testing.T) {
	if GetCode(nil) != Success {
		t.Fatal("nil should report Success")
	}
	// Raw errors must not leak as business codes.
	if GetCode(stderrors.New("boom")) != InternalServerError {
		t.Fatal("raw error should report InternalServerError")
	}
	if GetCode(New(RankNotFound)) != RankNotFound {
		t.Fatal("coded error should report its own code")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{Success, http.StatusOK},
		{AlreadySolved, http.StatusBadRequest},
		{SubmitTooFrequently, http.StatusTooManyRequests},
		{LoginTooFrequently, http.StatusTooManyRequests},
		{InvalidCredentials, http.StatusUnauthorized},
		{TokenExpired, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{ChallengeNotFound, http.StatusNotFound},
		{RankNotFound, http.StatusNotFound},
		{UsernameAlreadyExists, http.StatusConflict},
		{ValidationFailed, http.StatusBadRequest},
		{DatabaseError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Errorf("code %d: status = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestValidationError(t *testing.T) {
	err := ValidationError("flag", "required")
	if GetCode(err) != ValidationFailed {
		t.Fatalf("code = %d", GetCode(err))
	}
	if err.Error() != "validation failed: flag required" {
		t.Fatalf("message = %q", err.Error())
	}
}
