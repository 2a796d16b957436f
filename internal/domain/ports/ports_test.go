package ports

import (
	"errors"
	"net"
	"testing"
)

func TestGatewayError_PrefersDetail(t *testing.T) {
	err := &GatewayError{Operation: "upload file", StatusCode: 400, Detail: "Unsupported file type"}
	if err.Error() != "Unsupported file type" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestGatewayError_StatusFallback(t *testing.T) {
	err := &GatewayError{Operation: "fetch documents", StatusCode: 502}
	if err.Error() != "fetch documents failed with status 502" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestGatewayError_Unwrap(t *testing.T) {
	cause := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	err := &GatewayError{Operation: "send chat", Err: cause}

	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		t.Error("expected to unwrap to *net.OpError")
	}
	if err.Error() == "" {
		t.Error("expected non-empty message")
	}
}

func TestFileOperation_String(t *testing.T) {
	if FileCreated.String() != "created" || FileDeleted.String() != "deleted" {
		t.Error("unexpected operation names")
	}
	if FileOperation(42).String() != "unknown" {
		t.Error("expected unknown for out of range value")
	}
}
