package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"sweetlive/backend/internal/domain"
	"sweetlive/backend/internal/store"
)

// Store keeps encoded snapshots in process memory. Snapshots go through the
// same codec as the durable backends so callers never share slices with it.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
	saves     int
}

func New() *Store {
	return &Store{snapshots: make(map[string][]byte)}
}

// NewSeeded returns a store holding a demo catalogue for each given
// workspace.
func NewSeeded(workspaces ...string) *Store {
	s := New()
	for _, ws := range workspaces {
		key, err := store.WorkspaceKey(ws)
		if err != nil {
			continue
		}
		payload, err := store.Encode(seedSnapshot())
		if err != nil {
			continue
		}
		s.snapshots[key] = payload
	}
	return s
}

func seedSnapshot() domain.Snapshot {
	joined := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	return domain.Snapshot{
		Products: []domain.Product{
			{ID: "prd-seed-bun", Name: "Butter Bun", Category: "Bread", Price: decimal.NewFromInt(10), Stock: decimal.NewFromInt(120), Unit: "pcs"},
			{ID: "prd-seed-loaf", Name: "Milk Bread Loaf", Category: "Bread", Price: decimal.NewFromInt(60), Stock: decimal.NewFromInt(40), Unit: "pcs"},
			{ID: "prd-seed-cake", Name: "Black Forest Cake", Category: "Cake", Price: decimal.NewFromInt(650), Stock: decimal.NewFromInt(6), Unit: "pcs"},
			{ID: "prd-seed-biscuit", Name: "Dry Cake Biscuit", Category: "Biscuit", Price: decimal.NewFromInt(280), Stock: decimal.RequireFromString("12.5"), Unit: "kg"},
			{ID: "prd-seed-toast", Name: "Toast Pack", Category: "Biscuit", Price: decimal.NewFromInt(45), Stock: decimal.NewFromInt(30), Unit: "pkt"},
		},
		Staff: []domain.Staff{
			{ID: "stf-seed-baker", Name: "Head Baker", Designation: "Baker", MonthlySalary: decimal.NewFromInt(18000), JoinDate: joined},
			{ID: "stf-seed-counter", Name: "Counter Staff", Designation: "Salesman", MonthlySalary: decimal.NewFromInt(12000), JoinDate: joined},
		},
	}
}

func (s *Store) Load(_ context.Context, workspaceID string) (domain.Snapshot, error) {
	key, err := store.WorkspaceKey(workspaceID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	s.mu.RLock()
	payload := s.snapshots[key]
	s.mu.RUnlock()
	return store.Decode(payload)
}

func (s *Store) Save(_ context.Context, workspaceID string, snapshot domain.Snapshot) error {
	key, err := store.WorkspaceKey(workspaceID)
	if err != nil {
		return err
	}
	payload, err := store.Encode(snapshot)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[key] = payload
	s.saves++
	return nil
}

// Saves counts successful Save calls.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// Workspaces lists every workspace holding a snapshot.
func (s *Store) Workspaces(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.snapshots))
	for key := range s.snapshots {
		out = append(out, key)
	}
	sort.Strings(out)
	return out, nil
}
