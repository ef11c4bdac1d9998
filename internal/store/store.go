package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sweetlive/backend/internal/domain"
)

var ErrInvalidWorkspace = errors.New("invalid workspace")

// Gateway persists whole workspace snapshots. Load of a workspace that was
// never saved returns an empty snapshot, not an error.
type Gateway interface {
	Load(ctx context.Context, workspaceID string) (domain.Snapshot, error)
	Save(ctx context.Context, workspaceID string, snapshot domain.Snapshot) error
}

// WorkspaceKey lower-cases and trims a workspace id.
func WorkspaceKey(workspaceID string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(workspaceID))
	if key == "" {
		return "", ErrInvalidWorkspace
	}
	if strings.ContainsAny(key, " \t\r\n/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidWorkspace, workspaceID)
	}
	return key, nil
}

// Encode is the serialization contract shared by every backend.
func Encode(snapshot domain.Snapshot) ([]byte, error) {
	return json.Marshal(snapshot.Normalize())
}

func Decode(payload []byte) (domain.Snapshot, error) {
	if len(payload) == 0 {
		return domain.Snapshot{}.Normalize(), nil
	}
	var snapshot domain.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot.Normalize(), nil
}
