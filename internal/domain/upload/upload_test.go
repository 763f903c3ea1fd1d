package upload

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlot(t *testing.T) {
	s, err := ParseSlot("profilePhoto")
	require.NoError(t, err)
	assert.Equal(t, SlotProfilePhoto, s)
	assert.Equal(t, "profile", s.Dir())

	s, err = ParseSlot("resume")
	require.NoError(t, err)
	assert.Equal(t, "resume", s.Dir())

	_, err = ParseSlot("avatar")
	assert.ErrorIs(t, err, ErrUnknownSlot)
}

func TestSlot_CheckType(t *testing.T) {
	cases := []struct {
		name     string
		slot     Slot
		declared string
		sniffed  string
		want     error
	}{
		{"png photo", SlotProfilePhoto, "image/png", "image/png", nil},
		{"jpeg with params", SlotProfilePhoto, "image/jpeg; charset=binary", "image/jpeg", nil},
		{"text pretending to be image", SlotProfilePhoto, "image/png", "text/plain; charset=utf-8", ErrNotImage},
		{"pdf as photo", SlotProfilePhoto, "application/pdf", "application/pdf", ErrNotImage},
		{"svg photo", SlotProfilePhoto, "image/svg+xml", "image/svg+xml", ErrNotImage},
		{"svg declared as png", SlotProfilePhoto, "image/png", "image/svg+xml; charset=utf-8", ErrNotImage},
		{"pdf resume", SlotResume, MimePDF, MimePDF, nil},
		{"docx resume", SlotResume, MimeDOCX, MimeDOCX, nil},
		{"docx sniffed as zip", SlotResume, MimeDOCX, "application/zip", nil},
		{"zip declared as pdf", SlotResume, MimePDF, "application/zip", ErrNotDocument},
		{"image resume", SlotResume, "image/png", "image/png", ErrNotDocument},
		{"legacy doc", SlotResume, "application/msword", "application/x-ole-storage", ErrNotDocument},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.slot.CheckType(tc.declared, tc.sniffed)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCheckSize(t *testing.T) {
	assert.NoError(t, CheckSize(DefaultMaxSize, 0))
	assert.ErrorIs(t, CheckSize(DefaultMaxSize+1, 0), ErrTooLarge)
	assert.ErrorIs(t, CheckSize(11, 10), ErrTooLarge)
}

func TestNewFileName(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	a := NewFileName("My Resume.PDF", now)
	b := NewFileName("My Resume.PDF", now)

	assert.Regexp(t, regexp.MustCompile(`^1700000000123-[0-9a-v]{20}\.pdf$`), a)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^1700000000123-[0-9a-v]{20}$`, NewFileName("noext", now))
}

func TestStagedFile_OpenAndDiscard(t *testing.T) {
	path := filepath.Join(t.TempDir(), "staged")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))
	f := StagedFile{Slot: SlotResume, TempPath: path}

	rc, err := f.Open()
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	require.NoError(t, f.Discard())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, f.Discard())
}
