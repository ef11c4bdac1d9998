package store

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sweetlive/backend/internal/domain"
)

func TestWorkspaceKeyNormalizes(t *testing.T) {
	key, err := WorkspaceKey("  SweetLive ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "sweetlive" {
		t.Fatalf("expected sweetlive, got %q", key)
	}
	if _, err := WorkspaceKey("   "); !errors.Is(err, ErrInvalidWorkspace) {
		t.Fatalf("expected ErrInvalidWorkspace for blank id, got %v", err)
	}
	if _, err := WorkspaceKey("a/b"); !errors.Is(err, ErrInvalidWorkspace) {
		t.Fatalf("expected ErrInvalidWorkspace for slash, got %v", err)
	}
}

func TestDecodeFillsMissingCollections(t *testing.T) {
	snap, err := Decode([]byte(`{"products":[{"id":"p1","name":"Bun","price":"10","stock":5,"unit":"pcs"}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Products) != 1 || !snap.Products[0].Stock.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected products: %+v", snap.Products)
	}
	if snap.Sales == nil || snap.Closings == nil || snap.Deductions == nil {
		t.Fatalf("expected empty collections, got %+v", snap)
	}
}

func TestEncodeDecodeKeepsClosingTimestamp(t *testing.T) {
	at := time.Date(2026, time.March, 14, 21, 30, 0, 0, time.UTC)
	payload, err := Encode(domain.Snapshot{Closings: []domain.DailyClosing{{ID: "c1", Timestamp: at}}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	snap, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !snap.Closings[0].Timestamp.Equal(at) {
		t.Fatalf("timestamp changed: %v", snap.Closings[0].Timestamp)
	}
}
