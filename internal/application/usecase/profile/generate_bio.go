package profile

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/pkg/apperror"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

// MaxBioLength matches the profile form's bio limit.
const MaxBioLength = 500

type GenerateBioUseCase struct {
	llm    service.LLMService
	logger logger.Logger
}

// NewGenerateBioUseCase accepts a nil LLM; the use case then reports the
// feature as unavailable.
func NewGenerateBioUseCase(llm service.LLMService, log logger.Logger) *GenerateBioUseCase {
	return &GenerateBioUseCase{llm: llm, logger: log}
}

type GenerateBioInput struct {
	FirstName       string
	LastName        string
	Skills          []string
	FieldOfStudy    string
	EducationLevel  string
	University      string
	ExperienceLevel string
	Certificates    []string
}

type GenerateBioOutput struct {
	Bio string
}

func (uc *GenerateBioUseCase) Execute(ctx context.Context, input GenerateBioInput) (*GenerateBioOutput, error) {
	if uc.llm == nil {
		return nil, apperror.NewUnavailable("bio generation is not configured")
	}
	ctx, span := tracer.Start(ctx, "GenerateBio")
	defer span.End()

	text, err := uc.llm.GenerateText(ctx, bioPrompt(input))
	if err != nil {
		uc.logger.Error("LLM bio generation failed", err)
		err = apperror.NewInternal("failed to generate bio", err)
		span.RecordError(err)
		return nil, err
	}

	bio := cleanBio(text)
	if bio == "" {
		err := apperror.NewInternal("LLM returned an empty bio", nil)
		span.RecordError(err)
		return nil, err
	}
	return &GenerateBioOutput{Bio: bio}, nil
}

func bioPrompt(in GenerateBioInput) string {
	var b strings.Builder
	b.WriteString("Write a professional first-person bio for a job seeker's profile.\n")
	fmt.Fprintf(&b, "Keep it under %d characters, in one paragraph, without headings or quotes.\n\n", MaxBioLength)
	fmt.Fprintf(&b, "Name: %s %s\n", in.FirstName, in.LastName)
	writeLine(&b, "Skills", strings.Join(in.Skills, ", "))
	writeLine(&b, "Field of study", in.FieldOfStudy)
	writeLine(&b, "Education level", in.EducationLevel)
	writeLine(&b, "University", in.University)
	writeLine(&b, "Experience level", in.ExperienceLevel)
	writeLine(&b, "Certificates", strings.Join(in.Certificates, ", "))
	return b.String()
}

func writeLine(b *strings.Builder, label, value string) {
	if value = strings.TrimSpace(value); value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}

func cleanBio(text string) string {
	bio := strings.Trim(strings.TrimSpace(text), "\"'`")
	bio = strings.Join(strings.Fields(bio), " ")
	if utf8.RuneCountInString(bio) <= MaxBioLength {
		return bio
	}
	runes := []rune(bio)[:MaxBioLength]
	cut := string(runes)
	if i := strings.LastIndexAny(cut, ".!?"); i > MaxBioLength/2 {
		return cut[:i+1]
	}
	return strings.TrimSpace(cut)
}
