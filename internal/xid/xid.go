package xid

import (
	"github.com/google/uuid"
)

// New returns an identifier of the form "<prefix>-<uuid>".
func New(prefix string) string {
	id := uuid.NewString()
	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}
