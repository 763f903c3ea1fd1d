package service

import (
	"context"
	"io"

	"github.com/khoahotran/profile-portal/internal/domain/upload"
)

// FileStorage persists accepted uploads. Store returns the reference that is
// written to the profile row; Delete accepts exactly such a reference.
type FileStorage interface {
	Store(ctx context.Context, slot upload.Slot, fileName string, file io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}
