package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"sort"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/khoahotran/profile-portal/internal/domain/upload"
	"github.com/khoahotran/profile-portal/pkg/apperror"
)

const sniffLen = 3072

// UploadStager validates multipart files and copies accepted ones into a
// private staging directory. Nothing reaches permanent storage from here.
type UploadStager struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// NewUploadStager stages into dir, or the system temp dir when dir is empty.
func NewUploadStager(dir string, maxBytes int64) *UploadStager {
	if maxBytes <= 0 {
		maxBytes = upload.DefaultMaxSize
	}
	return &UploadStager{dir: dir, maxBytes: maxBytes, now: time.Now}
}

// MaxRequestBytes bounds a whole multipart body: one file per slot plus
// room for the text fields.
func (s *UploadStager) MaxRequestBytes() int64 {
	return int64(len(upload.Slots()))*s.maxBytes + 1<<20
}

// Stage accepts at most one file per known slot. On error every file staged
// so far is removed again.
func (s *UploadStager) Stage(files map[string][]*multipart.FileHeader) (staged []upload.StagedFile, err error) {
	defer func() {
		if err != nil {
			discardAll(staged)
			staged = nil
		}
	}()

	fields := make([]string, 0, len(files))
	for f := range files {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for _, field := range fields {
		headers := files[field]
		if len(headers) == 0 {
			continue
		}
		slot, err := upload.ParseSlot(field)
		if err != nil {
			return staged, fieldErr(field, err)
		}
		if len(headers) > 1 {
			return staged, fieldErr(field, upload.ErrDuplicateFile)
		}

		f, err := s.stageOne(slot, headers[0])
		if err != nil {
			return staged, err
		}
		staged = append(staged, f)
	}
	return staged, nil
}

func (s *UploadStager) stageOne(slot upload.Slot, fh *multipart.FileHeader) (upload.StagedFile, error) {
	if err := upload.CheckSize(fh.Size, s.maxBytes); err != nil {
		return upload.StagedFile{}, apperror.NewTooLarge(fmt.Sprintf("%s exceeds %d bytes", slot, s.maxBytes))
	}

	src, err := fh.Open()
	if err != nil {
		return upload.StagedFile{}, apperror.NewInvalidInput("cannot read uploaded file", err)
	}
	defer src.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return upload.StagedFile{}, apperror.NewInvalidInput("cannot read uploaded file", err)
	}
	head = head[:n]

	declared := fh.Header.Get("Content-Type")
	if err := slot.CheckType(declared, mimetype.Detect(head).String()); err != nil {
		return upload.StagedFile{}, fieldErr(string(slot), err)
	}

	tmp, err := os.CreateTemp(s.dir, "upload-*")
	if err != nil {
		return upload.StagedFile{}, apperror.NewInternal("cannot create staging file", err)
	}
	staged := upload.StagedFile{
		Slot:         slot,
		OriginalName: fh.Filename,
		ContentType:  declared,
		StoredName:   upload.NewFileName(fh.Filename, s.now()),
		TempPath:     tmp.Name(),
	}

	written, err := io.Copy(tmp, io.MultiReader(bytes.NewReader(head), io.LimitReader(src, s.maxBytes+1-int64(n))))
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = staged.Discard()
		return upload.StagedFile{}, apperror.NewInternal("cannot stage uploaded file", err)
	}
	if written > s.maxBytes {
		_ = staged.Discard()
		return upload.StagedFile{}, apperror.NewTooLarge(fmt.Sprintf("%s exceeds %d bytes", slot, s.maxBytes))
	}
	staged.Size = written
	return staged, nil
}

func fieldErr(field string, err error) *apperror.AppError {
	return apperror.NewValidationFailed(apperror.FieldError{Field: field, Message: err.Error()})
}

func discardAll(files []upload.StagedFile) {
	for _, f := range files {
		_ = f.Discard()
	}
}
