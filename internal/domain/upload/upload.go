package upload

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"
)

// Slot is a named file field of the profile form.
type Slot string

const (
	SlotProfilePhoto Slot = "profilePhoto"
	SlotResume       Slot = "resume"
)

// DefaultMaxSize applies to every slot unless configured otherwise.
const DefaultMaxSize int64 = 10 * 1024 * 1024

var (
	ErrUnknownSlot   = errors.New("invalid field name")
	ErrDuplicateFile = errors.New("only one file per field is allowed")
	ErrNotImage      = errors.New("only image files are allowed")
	ErrNotDocument   = errors.New("only PDF or DOCX files are allowed")
	ErrTooLarge      = errors.New("file size too large")
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeZip  = "application/zip"
	mimeSVG  = "image/svg+xml"
)

func Slots() []Slot {
	return []Slot{SlotProfilePhoto, SlotResume}
}

func ParseSlot(field string) (Slot, error) {
	switch Slot(field) {
	case SlotProfilePhoto, SlotResume:
		return Slot(field), nil
	}
	return "", ErrUnknownSlot
}

// Dir is the storage sub-directory for the slot.
func (s Slot) Dir() string {
	if s == SlotProfilePhoto {
		return "profile"
	}
	return "resume"
}

// CheckType validates both the declared content type and the sniffed one.
// A DOCX is a zip container, so a generic zip detection is accepted for it.
func (s Slot) CheckType(declared, sniffed string) error {
	declared = baseMime(declared)
	sniffed = baseMime(sniffed)
	switch s {
	case SlotProfilePhoto:
		if !strings.HasPrefix(declared, "image/") || !strings.HasPrefix(sniffed, "image/") {
			return ErrNotImage
		}
		// SVG can carry script and uploads are served from the API origin.
		if declared == mimeSVG || sniffed == mimeSVG {
			return ErrNotImage
		}
		return nil
	case SlotResume:
		switch declared {
		case MimePDF:
			if sniffed == MimePDF {
				return nil
			}
		case MimeDOCX:
			if sniffed == MimeDOCX || sniffed == mimeZip {
				return nil
			}
		}
		return ErrNotDocument
	}
	return ErrUnknownSlot
}

func CheckSize(size, limit int64) error {
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	if size > limit {
		return ErrTooLarge
	}
	return nil
}

// NewFileName builds a collision-resistant stored name that keeps the
// lower-cased extension of the client's file name.
func NewFileName(original string, now time.Time) string {
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), xid.New().String(), strings.ToLower(filepath.Ext(original)))
}

// StagedFile is an accepted upload parked in a temporary location until the
// profile write that references it is ready to run.
type StagedFile struct {
	Slot         Slot
	OriginalName string
	ContentType  string
	Size         int64
	StoredName   string
	TempPath     string
}

func (f StagedFile) Open() (io.ReadCloser, error) {
	return os.Open(f.TempPath)
}

// Discard removes the staged temp file. Missing files are not an error.
func (f StagedFile) Discard() error {
	if f.TempPath == "" {
		return nil
	}
	if err := os.Remove(f.TempPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func baseMime(v string) string {
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	return strings.ToLower(strings.TrimSpace(v))
}
