package media_storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/profile-portal/internal/domain/upload"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

func TestLocalAdapter_StoreAndDelete(t *testing.T) {
	base := t.TempDir()
	storage, err := NewLocalAdapter(base, logger.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := storage.Store(ctx, upload.SlotResume, "1700-abc.pdf", strings.NewReader("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, "uploads/resume/1700-abc.pdf", ref)

	content, err := os.ReadFile(filepath.Join(base, "resume", "1700-abc.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(content))

	entries, err := os.ReadDir(filepath.Join(base, "resume"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")

	require.NoError(t, storage.Delete(ctx, ref))
	_, err = os.Stat(filepath.Join(base, "resume", "1700-abc.pdf"))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, storage.Delete(ctx, ref), "deleting twice is fine")
}

func TestLocalAdapter_RejectsUnsafeNames(t *testing.T) {
	storage, err := NewLocalAdapter(t.TempDir(), logger.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = storage.Store(ctx, upload.SlotProfilePhoto, "../escape.png", strings.NewReader("x"))
	assert.Error(t, err)

	assert.Error(t, storage.Delete(ctx, "https://res.cloudinary.com/demo/image/upload/x.png"))
	assert.Error(t, storage.Delete(ctx, "uploads/"))
}

func TestLocalAdapter_DeleteStaysInsideBaseDir(t *testing.T) {
	root := t.TempDir()
	base := filepath.Join(root, "uploads")
	outside := filepath.Join(root, "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o600))
	storage, err := NewLocalAdapter(base, logger.NewNop())
	require.NoError(t, err)

	_ = storage.Delete(context.Background(), "uploads/../secret.txt")

	_, err = os.Stat(outside)
	assert.NoError(t, err)
}

func TestParseDeliveryURL(t *testing.T) {
	cases := []struct {
		ref          string
		publicID     string
		resourceType string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712345678/profile-portal/profile/1700-abc.png", "profile-portal/profile/1700-abc", "image"},
		{"https://res.cloudinary.com/demo/raw/upload/v1/profile-portal/resume/1700-abc.pdf", "profile-portal/resume/1700-abc.pdf", "raw"},
		{"https://res.cloudinary.com/demo/image/upload/profile-portal/profile/me.jpg", "profile-portal/profile/me", "image"},
	}
	for _, tc := range cases {
		publicID, resourceType, err := parseDeliveryURL(tc.ref)
		require.NoError(t, err, tc.ref)
		assert.Equal(t, tc.publicID, publicID)
		assert.Equal(t, tc.resourceType, resourceType)
	}

	_, _, err := parseDeliveryURL("uploads/profile/x.png")
	assert.Error(t, err)
}
