package profile

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoahotran/profile-portal/internal/testutil"
	"github.com/khoahotran/profile-portal/pkg/apperror"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

func TestGenerateBio_Unconfigured(t *testing.T) {
	uc := NewGenerateBioUseCase(nil, logger.NewNop())

	_, err := uc.Execute(context.Background(), GenerateBioInput{FirstName: "Ada"})

	assert.ErrorIs(t, err, apperror.ErrUnavailable)
}

func TestGenerateBio_BuildsPromptAndCleansReply(t *testing.T) {
	llm := &testutil.LLM{Reply: "  \"I am a  backend engineer\nwho loves Go.\"  "}
	uc := NewGenerateBioUseCase(llm, logger.NewNop())

	out, err := uc.Execute(context.Background(), GenerateBioInput{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Skills:       []string{"Go", "PostgreSQL"},
		University:   "HCMUT",
		Certificates: []string{"CKA"},
	})

	require.NoError(t, err)
	assert.Equal(t, "I am a backend engineer who loves Go.", out.Bio)
	assert.Contains(t, llm.Prompt, "Name: Ada Lovelace")
	assert.Contains(t, llm.Prompt, "Skills: Go, PostgreSQL")
	assert.Contains(t, llm.Prompt, "Certificates: CKA")
	assert.NotContains(t, llm.Prompt, "Field of study")
}

func TestGenerateBio_TruncatesLongReply(t *testing.T) {
	long := strings.Repeat("I build reliable systems. ", 40)
	uc := NewGenerateBioUseCase(&testutil.LLM{Reply: long}, logger.NewNop())

	out, err := uc.Execute(context.Background(), GenerateBioInput{FirstName: "Ada"})

	require.NoError(t, err)
	assert.LessOrEqual(t, utf8.RuneCountInString(out.Bio), MaxBioLength)
	assert.True(t, strings.HasSuffix(out.Bio, "."))
}

func TestGenerateBio_LLMError(t *testing.T) {
	uc := NewGenerateBioUseCase(&testutil.LLM{Err: assert.AnError}, logger.NewNop())

	_, err := uc.Execute(context.Background(), GenerateBioInput{FirstName: "Ada"})

	assert.ErrorIs(t, err, apperror.ErrInternal)
}
