package database

import (
	"context"
	"testing"
	"time"
)

func TestDial_InvalidURI(t *testing.T) {
	if _, err := dial(context.Background(), "not-a-mongo-uri", 50*time.Millisecond); err == nil {
		t.Fatal("expected an error for a malformed URI")
	}
}

func TestConnect_CanceledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	_, err := Connect(ctx, "not-a-mongo-uri", 50*time.Millisecond)
	if err == nil {
		t.Fatal("expected an error with a canceled context")
	}
	// cancellation must short-circuit the backoff between attempts
	if time.Since(start) > 5*time.Second {
		t.Fatalf("retry loop ignored cancellation, took %s", time.Since(start))
	}
}
