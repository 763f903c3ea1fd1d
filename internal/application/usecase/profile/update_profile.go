package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/internal/domain/profile"
	"github.com/khoahotran/profile-portal/internal/domain/upload"
	"github.com/khoahotran/profile-portal/pkg/apperror"
)

type UpdateProfileInput struct {
	UserID    uuid.UUID
	FirstName *string
	LastName  *string
	Phone     *string
	Address   *string
	Bio       *string
	Skills    []string
	Education []profile.EducationEntry

	ReplaceCertificates bool
	Certificates        []profile.Certificate

	// Files are already validated and staged. They are removed from staging
	// whatever the outcome.
	Files []upload.StagedFile
}

// UpdateProfileOutput carries the reloaded profile. Profile is nil when the
// write committed but the reload failed.
type UpdateProfileOutput struct {
	Profile *profile.Profile
}

// ExecuteUpdateProfile promotes staged uploads into storage, applies the
// profile write in one transaction and then reports superseded files.
// Promoted files are removed again when the write fails.
func (uc *ProfileUseCase) ExecuteUpdateProfile(ctx context.Context, input UpdateProfileInput) (*UpdateProfileOutput, error) {
	ctx, span := tracer.Start(ctx, "UpdateProfile")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", input.UserID.String()),
		attribute.Int("certificates", len(input.Certificates)),
		attribute.Int("files", len(input.Files)),
	)

	defer func() {
		for _, f := range input.Files {
			if err := f.Discard(); err != nil {
				uc.logger.Warn("Failed to remove staged upload", zap.String("path", f.TempPath), zap.Error(err))
			}
		}
	}()

	upd := &profile.Update{
		UserID:              input.UserID,
		FirstName:           input.FirstName,
		LastName:            input.LastName,
		Phone:               input.Phone,
		Address:             input.Address,
		Bio:                 input.Bio,
		Skills:              input.Skills,
		Education:           input.Education,
		ReplaceCertificates: input.ReplaceCertificates,
		Certificates:        input.Certificates,
	}

	promoted, err := uc.promote(ctx, input.Files, upd)
	if err != nil {
		uc.discardStored(promoted)
		span.RecordError(err)
		return nil, err
	}

	result, err := uc.profileRepo.Update(ctx, upd)
	if err != nil {
		uc.discardStored(promoted)
		span.RecordError(err)
		return nil, fmt.Errorf("update profile failed: %w", err)
	}

	uc.publish(ctx, service.UserEvent{
		EventType:  service.UserEventProfileUpdated,
		UserID:     input.UserID,
		StaleFiles: result.ReplacedFiles,
		OccurredAt: time.Now().UTC(),
	})

	p, err := uc.profileRepo.GetByUserID(ctx, input.UserID)
	if err != nil {
		span.RecordError(err)
		uc.logger.Error("Failed to reload updated profile", err, zap.String("user_id", input.UserID.String()))
		return &UpdateProfileOutput{}, nil
	}
	return &UpdateProfileOutput{Profile: p}, nil
}

func (uc *ProfileUseCase) promote(ctx context.Context, files []upload.StagedFile, upd *profile.Update) ([]string, error) {
	var stored []string
	for _, f := range files {
		ref, err := uc.store(ctx, f)
		if err != nil {
			return stored, apperror.NewInternal(fmt.Sprintf("failed to store %s upload", f.Slot), err)
		}
		stored = append(stored, ref)

		switch f.Slot {
		case upload.SlotProfilePhoto:
			upd.ProfilePhoto = &ref
		case upload.SlotResume:
			upd.ResumeFile = &ref
		}
	}
	return stored, nil
}

func (uc *ProfileUseCase) store(ctx context.Context, f upload.StagedFile) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return uc.storage.Store(ctx, f.Slot, f.StoredName, rc)
}

func (uc *ProfileUseCase) discardStored(refs []string) {
	for _, ref := range refs {
		if err := uc.storage.Delete(context.Background(), ref); err != nil {
			uc.logger.Error("Failed to remove orphaned upload", err, zap.String("ref", ref))
		}
	}
}
