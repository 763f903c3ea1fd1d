package notification

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/internal/domain/upload"
	"github.com/khoahotran/profile-portal/internal/testutil"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

func TestProcessUserEvent_SendsResetMail(t *testing.T) {
	mailer := &testutil.Mailer{}
	uc := NewProcessUserEventUseCase(mailer, testutil.NewStorage(), logger.NewNop())

	err := uc.Execute(context.Background(), service.UserEvent{
		EventType: service.UserEventPasswordResetRequested,
		UserID:    uuid.New(),
		Email:     "ada@example.com",
		ResetURL:  "http://portal.test/reset-password?token=abc&x=1",
	})

	require.NoError(t, err)
	require.Len(t, mailer.Sent, 1)
	assert.Equal(t, "ada@example.com", mailer.Sent[0].To)
	assert.Contains(t, mailer.Sent[0].Body, "token=abc&amp;x=1")
}

func TestProcessUserEvent_MailErrorIsReturned(t *testing.T) {
	mailer := &testutil.Mailer{Err: assert.AnError}
	uc := NewProcessUserEventUseCase(mailer, testutil.NewStorage(), logger.NewNop())

	err := uc.Execute(context.Background(), service.UserEvent{
		EventType: service.UserEventPasswordResetRequested,
		Email:     "ada@example.com",
		ResetURL:  "http://portal.test/reset-password?token=abc",
	})

	assert.ErrorIs(t, err, assert.AnError)
}

func TestProcessUserEvent_RemovesStaleFiles(t *testing.T) {
	ctx := context.Background()
	storage := testutil.NewStorage()
	old, err := storage.Store(ctx, upload.SlotProfilePhoto, "old.png", strings.NewReader("png"))
	require.NoError(t, err)
	kept, err := storage.Store(ctx, upload.SlotResume, "cv.pdf", strings.NewReader("%PDF-"))
	require.NoError(t, err)
	uc := NewProcessUserEventUseCase(&testutil.Mailer{}, storage, logger.NewNop())

	err = uc.Execute(ctx, service.UserEvent{
		EventType:  service.UserEventProfileUpdated,
		UserID:     uuid.New(),
		StaleFiles: []string{old},
	})

	require.NoError(t, err)
	assert.False(t, storage.Has(old))
	assert.True(t, storage.Has(kept))
}

func TestProcessUserEvent_IgnoresUnknownAndIncompleteEvents(t *testing.T) {
	mailer := &testutil.Mailer{}
	uc := NewProcessUserEventUseCase(mailer, testutil.NewStorage(), logger.NewNop())

	assert.NoError(t, uc.Execute(context.Background(), service.UserEvent{EventType: "something.else"}))
	assert.NoError(t, uc.Execute(context.Background(), service.UserEvent{EventType: service.UserEventPasswordResetRequested}))
	assert.NoError(t, uc.Execute(context.Background(), service.UserEvent{EventType: service.UserEventRegistered, Email: "a@b.c"}))
	assert.Empty(t, mailer.Sent)
}
