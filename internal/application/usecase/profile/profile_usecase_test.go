package profile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/internal/domain/profile"
	"github.com/khoahotran/profile-portal/internal/domain/upload"
	"github.com/khoahotran/profile-portal/internal/domain/user"
	"github.com/khoahotran/profile-portal/internal/testutil"
	"github.com/khoahotran/profile-portal/pkg/apperror"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

type ProfileUseCaseTestSuite struct {
	suite.Suite
	store     *testutil.Store
	storage   *testutil.Storage
	publisher *testutil.Publisher
	uc        *ProfileUseCase
	userID    uuid.UUID
}

func (s *ProfileUseCaseTestSuite) SetupTest() {
	s.store = testutil.NewStore()
	s.storage = testutil.NewStorage()
	s.publisher = &testutil.Publisher{}
	s.uc = NewProfileUseCase(s.store.Profiles(), s.storage, s.publisher, logger.NewNop())

	s.userID = uuid.New()
	s.Require().NoError(s.store.Users().Create(context.Background(), &user.User{
		ID:           s.userID,
		Email:        "user@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}))
}

func TestProfileUseCase(t *testing.T) {
	suite.Run(t, new(ProfileUseCaseTestSuite))
}

func (s *ProfileUseCaseTestSuite) get() *profile.Profile {
	out, err := s.uc.ExecuteGetProfile(context.Background(), GetProfileInput{UserID: s.userID})
	s.Require().NoError(err)
	return out.Profile
}

func (s *ProfileUseCaseTestSuite) stage(slot upload.Slot, name string) upload.StagedFile {
	path := filepath.Join(s.T().TempDir(), "staged-"+name)
	s.Require().NoError(os.WriteFile(path, []byte("content of "+name), 0o600))
	return upload.StagedFile{
		Slot:         slot,
		OriginalName: name,
		StoredName:   upload.NewFileName(name, time.Now()),
		TempPath:     path,
	}
}

func certs(names ...string) []profile.Certificate {
	out := make([]profile.Certificate, len(names))
	for i, n := range names {
		out[i] = profile.Certificate{Name: testutil.Ptr(n)}
	}
	return out
}

func certNames(cs []profile.Certificate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = *c.Name
	}
	return out
}

func (s *ProfileUseCaseTestSuite) Test_Update_ReplacesCertificatesAsASet() {
	ctx := context.Background()

	_, err := s.uc.ExecuteUpdateProfile(ctx, UpdateProfileInput{
		UserID:              s.userID,
		FirstName:           testutil.Ptr("Ada"),
		ReplaceCertificates: true,
		Certificates:        certs("AWS", "CKA", "Scrum"),
	})
	s.Require().NoError(err)
	s.Equal([]string{"AWS", "CKA", "Scrum"}, certNames(s.get().Certificates))

	out, err := s.uc.ExecuteUpdateProfile(ctx, UpdateProfileInput{
		UserID:              s.userID,
		FirstName:           testutil.Ptr("Ada"),
		ReplaceCertificates: true,
		Certificates:        certs("GCP"),
	})
	s.Require().NoError(err)
	s.Equal([]string{"GCP"}, certNames(out.Profile.Certificates))

	_, err = s.uc.ExecuteUpdateProfile(ctx, UpdateProfileInput{UserID: s.userID, FirstName: testutil.Ptr("Ada")})
	s.Require().NoError(err)
	s.Equal([]string{"GCP"}, certNames(s.get().Certificates), "absent certificates leave the set untouched")

	_, err = s.uc.ExecuteUpdateProfile(ctx, UpdateProfileInput{UserID: s.userID, ReplaceCertificates: true})
	s.Require().NoError(err)
	s.Empty(s.get().Certificates)
}

func (s *ProfileUseCaseTestSuite) Test_Update_ScalarsAreFullOverwrite() {
	ctx := context.Background()
	_, err := s.uc.ExecuteUpdateProfile(ctx, UpdateProfileInput{
		UserID:    s.userID,
		FirstName: testutil.Ptr("Ada"),
		LastName:  testutil.Ptr("Lovelace"),
		Bio:       testutil.Ptr("Analyst"),
		Skills:    []string{"math"},
	})
	s.Require().NoError(err)

	_, err = s.uc.ExecuteUpdateProfile(ctx, UpdateProfileInput{UserID: s.userID, FirstName: testutil.Ptr("Grace")})
	s.Require().NoError(err)

	p := s.get()
	s.Equal("Grace", *p.FirstName)
	s.Nil(p.LastName)
	s.Nil(p.Bio)
	s.Nil(p.Skills)
}

func (s *ProfileUseCaseTestSuite) Test_Update_FilePathsCoalesce() {
	ctx := context.Background()
	photo := s.stage(upload.SlotProfilePhoto, "me.png")

	out, err := s.uc.ExecuteUpdateProfile(ctx, UpdateProfileInput{UserID: s.userID, Files: []upload.StagedFile{photo}})
	s.Require().NoError(err)
	s.Require().NotNil(out.Profile.ProfilePhoto)
	firstPhoto := *out.Profile.ProfilePhoto
	s.True(strings.HasPrefix(firstPhoto, "uploads/profile/"))
	s.True(s.storage.Has(firstPhoto))
	_, statErr := os.Stat(photo.TempPath)
	s.True(os.IsNotExist(statErr), "staged file must be removed after promotion")

	resume := s.stage(upload.SlotResume, "cv.pdf")
	out, err = s.uc.ExecuteUpdateProfile(ctx, UpdateProfileInput{UserID: s.userID, Files: []upload.StagedFile{resume}})
	s.Require().NoError(err)
	s.Equal(firstPhoto, *out.Profile.ProfilePhoto, "photo survives an update without a new photo")
	s.True(strings.HasPrefix(*out.Profile.ResumeFile, "uploads/resume/"))

	newPhoto := s.stage(upload.SlotProfilePhoto, "new.jpg")
	out, err = s.uc.ExecuteUpdateProfile(ctx, UpdateProfileInput{UserID: s.userID, Files: []upload.StagedFile{newPhoto}})
	s.Require().NoError(err)
	s.NotEqual(firstPhoto, *out.Profile.ProfilePhoto)

	evt, ok := s.publisher.Last(service.UserEventProfileUpdated)
	s.Require().True(ok)
	s.Equal([]string{firstPhoto}, evt.StaleFiles)
}

func (s *ProfileUseCaseTestSuite) Test_Update_FailedWriteLeavesNoOrphans() {
	ctx := context.Background()
	_, err := s.uc.ExecuteUpdateProfile(ctx, UpdateProfileInput{
		UserID:              s.userID,
		FirstName:           testutil.Ptr("Ada"),
		ReplaceCertificates: true,
		Certificates:        certs("AWS"),
	})
	s.Require().NoError(err)

	s.store.FailUpdate = errors.New("connection reset")
	photo := s.stage(upload.SlotProfilePhoto, "me.png")
	_, err = s.uc.ExecuteUpdateProfile(ctx, UpdateProfileInput{
		UserID:              s.userID,
		FirstName:           testutil.Ptr("Grace"),
		ReplaceCertificates: true,
		Certificates:        certs("GCP", "Azure"),
		Files:               []upload.StagedFile{photo},
	})

	s.Require().ErrorIs(err, apperror.ErrInternal)
	s.Empty(s.storage.Refs())
	_, statErr := os.Stat(photo.TempPath)
	s.True(os.IsNotExist(statErr))

	p := s.get()
	s.Equal("Ada", *p.FirstName)
	s.Nil(p.ProfilePhoto)
	s.Equal([]string{"AWS"}, certNames(p.Certificates))
}

func (s *ProfileUseCaseTestSuite) Test_Update_CertificateFailureRollsBackEverything() {
	ctx := context.Background()
	_, err := s.uc.ExecuteUpdateProfile(ctx, UpdateProfileInput{
		UserID:              s.userID,
		FirstName:           testutil.Ptr("Ada"),
		ReplaceCertificates: true,
		Certificates:        certs("AWS", "CKA"),
	})
	s.Require().NoError(err)

	bad := append(certs("GCP"), profile.Certificate{Description: testutil.Ptr("no name")})
	_, err = s.uc.ExecuteUpdateProfile(ctx, UpdateProfileInput{
		UserID:              s.userID,
		FirstName:           testutil.Ptr("Grace"),
		ReplaceCertificates: true,
		Certificates:        bad,
	})
	s.Require().Error(err)

	p := s.get()
	s.Equal("Ada", *p.FirstName)
	s.Equal([]string{"AWS", "CKA"}, certNames(p.Certificates))
}

func (s *ProfileUseCaseTestSuite) Test_Update_StorageFailure() {
	s.storage.StoreErr = errors.New("disk full")
	photo := s.stage(upload.SlotProfilePhoto, "me.png")

	_, err := s.uc.ExecuteUpdateProfile(context.Background(), UpdateProfileInput{
		UserID:    s.userID,
		FirstName: testutil.Ptr("Grace"),
		Files:     []upload.StagedFile{photo},
	})

	s.ErrorIs(err, apperror.ErrInternal)
	s.Nil(s.get().FirstName)
}

type failingReloadRepo struct {
	profile.Repository
}

func (r failingReloadRepo) GetByUserID(context.Context, uuid.UUID) (*profile.Profile, error) {
	return nil, apperror.NewInternal("read replica gone", errors.New("connection refused"))
}

func (s *ProfileUseCaseTestSuite) Test_Update_ReloadFailureStillConfirms() {
	uc := NewProfileUseCase(failingReloadRepo{s.store.Profiles()}, s.storage, s.publisher, logger.NewNop())

	out, err := uc.ExecuteUpdateProfile(context.Background(), UpdateProfileInput{
		UserID:              s.userID,
		FirstName:           testutil.Ptr("Ada"),
		ReplaceCertificates: true,
		Certificates:        certs("AWS"),
	})

	s.Require().NoError(err)
	s.Nil(out.Profile)
	p := s.get()
	s.Equal("Ada", *p.FirstName)
	s.Equal([]string{"AWS"}, certNames(p.Certificates))
	_, ok := s.publisher.Last(service.UserEventProfileUpdated)
	s.True(ok)
}

func (s *ProfileUseCaseTestSuite) Test_Get_UnknownUser() {
	_, err := s.uc.ExecuteGetProfile(context.Background(), GetProfileInput{UserID: uuid.New()})

	s.ErrorIs(err, apperror.ErrNotFound)
}

func (s *ProfileUseCaseTestSuite) Test_Delete_PublishesStoredFiles() {
	ctx := context.Background()
	photo := s.stage(upload.SlotProfilePhoto, "me.png")
	out, err := s.uc.ExecuteUpdateProfile(ctx, UpdateProfileInput{UserID: s.userID, Files: []upload.StagedFile{photo}})
	s.Require().NoError(err)

	s.Require().NoError(s.uc.ExecuteDeleteProfile(ctx, DeleteProfileInput{UserID: s.userID}))

	evt, ok := s.publisher.Last(service.UserEventProfileDeleted)
	s.Require().True(ok)
	s.Equal([]string{*out.Profile.ProfilePhoto}, evt.StaleFiles)

	_, err = s.uc.ExecuteGetProfile(ctx, GetProfileInput{UserID: s.userID})
	s.ErrorIs(err, apperror.ErrNotFound)

	err = s.uc.ExecuteDeleteProfile(ctx, DeleteProfileInput{UserID: s.userID})
	s.ErrorIs(err, apperror.ErrNotFound)
}
