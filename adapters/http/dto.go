package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	profileUC "github.com/khoahotran/profile-portal/internal/application/usecase/profile"
	"github.com/khoahotran/profile-portal/internal/domain/profile"
	"github.com/khoahotran/profile-portal/internal/domain/user"
	"github.com/khoahotran/profile-portal/pkg/apperror"
)

const dateLayout = "2006-01-02"

// Auth DTOs

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,password"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type resetRequestRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,password"`
}

type UserDTO struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type AuthResponse struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

func ToUserDTO(u *user.User) UserDTO {
	return UserDTO{ID: u.ID.String(), Email: u.Email}
}

// Profile DTOs

type CertificateDTO struct {
	ID              int64   `json:"id"`
	CertificateName *string `json:"certificate_name"`
	StartDate       *string `json:"start_date"`
	EndDate         *string `json:"end_date"`
	Description     *string `json:"description"`
}

type ProfileDTO struct {
	ID           string                   `json:"id"`
	Email        string                   `json:"email"`
	FirstName    *string                  `json:"first_name"`
	LastName     *string                  `json:"last_name"`
	Phone        *string                  `json:"phone"`
	Address      *string                  `json:"address"`
	Bio          *string                  `json:"bio"`
	Skills       []string                 `json:"skills"`
	Education    []profile.EducationEntry `json:"education"`
	ProfilePhoto *string                  `json:"profile_photo"`
	ResumeFile   *string                  `json:"resume_file"`
	Certificates []CertificateDTO         `json:"certificates"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

func ToProfileDTO(p *profile.Profile) ProfileDTO {
	dto := ProfileDTO{
		ID:           p.UserID.String(),
		Email:        p.Email,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Phone:        p.Phone,
		Address:      p.Address,
		Bio:          p.Bio,
		Skills:       p.Skills,
		Education:    p.Education,
		ProfilePhoto: p.ProfilePhoto,
		ResumeFile:   p.ResumeFile,
		UpdatedAt:    p.UpdatedAt,
	}
	if dto.Skills == nil {
		dto.Skills = []string{}
	}
	if dto.Education == nil {
		dto.Education = []profile.EducationEntry{}
	}
	dto.Certificates = make([]CertificateDTO, len(p.Certificates))
	for i, c := range p.Certificates {
		dto.Certificates[i] = CertificateDTO{
			ID:              c.ID,
			CertificateName: c.Name,
			StartDate:       formatDate(c.StartDate),
			EndDate:         formatDate(c.EndDate),
			Description:     c.Description,
		}
	}
	return dto
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

// UpdateProfileRequest is accepted both as multipart form fields and as a
// JSON body. The structured fields hold JSON, either inline or as a string.
type UpdateProfileRequest struct {
	FirstName    string          `json:"firstName" binding:"omitempty,min=2,max=100"`
	LastName     string          `json:"lastName" binding:"omitempty,min=2,max=100"`
	Phone        string          `json:"phone" binding:"omitempty,min=6,max=20"`
	Address      string          `json:"address"`
	Bio          string          `json:"bio" binding:"omitempty,max=500"`
	Skills       json.RawMessage `json:"skills"`
	Education    json.RawMessage `json:"education"`
	Certificates json.RawMessage `json:"certificates"`
}

const maxSkillsLength = 500

func formFromMultipart(values map[string][]string) UpdateProfileRequest {
	get := func(key string) string {
		if v := values[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	raw := func(key string) json.RawMessage {
		if s := strings.TrimSpace(get(key)); s != "" {
			return json.RawMessage(s)
		}
		return nil
	}
	return UpdateProfileRequest{
		FirstName:    get("firstName"),
		LastName:     get("lastName"),
		Phone:        get("phone"),
		Address:      get("address"),
		Bio:          get("bio"),
		Skills:       raw("skills"),
		Education:    raw("education"),
		Certificates: raw("certificates"),
	}
}

func (r *UpdateProfileRequest) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Address = strings.TrimSpace(r.Address)
	r.Bio = strings.TrimSpace(r.Bio)
}

type certificateRequest struct {
	CertificateName *string `json:"certificateName"`
	StartDate       *string `json:"startDate"`
	EndDate         *string `json:"endDate"`
	Description     *string `json:"description"`
}

// ToInput turns the request into a use case input. Empty values count as
// absent and are stored as NULL.
func (r *UpdateProfileRequest) ToInput(userID uuid.UUID) (profileUC.UpdateProfileInput, error) {
	in := profileUC.UpdateProfileInput{
		UserID:    userID,
		FirstName: nilIfEmpty(r.FirstName),
		LastName:  nilIfEmpty(r.LastName),
		Phone:     nilIfEmpty(r.Phone),
		Address:   nilIfEmpty(r.Address),
		Bio:       nilIfEmpty(r.Bio),
	}
	var fieldErrs []apperror.FieldError

	if raw, ok := unwrapStructured(r.Skills); ok {
		skills, err := parseSkills(raw)
		if err != nil {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: "skills", Message: err.Error()})
		}
		in.Skills = skills
	}

	if raw, ok := unwrapStructured(r.Education); ok {
		education, err := parseEducation(raw)
		if err != nil {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: "education", Message: err.Error()})
		}
		in.Education = education
	}

	if raw, ok := unwrapStructured(r.Certificates); ok {
		if !json.Valid(raw) {
			fieldErrs = append(fieldErrs, apperror.FieldError{Field: "certificates", Message: "must be valid JSON"})
		} else if raw[0] == '[' {
			certs, errs := parseCertificates(raw)
			fieldErrs = append(fieldErrs, errs...)
			in.ReplaceCertificates = true
			in.Certificates = certs
		}
	}

	if len(fieldErrs) > 0 {
		return in, apperror.NewValidationFailed(fieldErrs...)
	}
	return in, nil
}

// unwrapStructured strips one level of JSON string quoting and reports
// whether a value is present at all.
func unwrapStructured(raw json.RawMessage) ([]byte, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return raw, true
		}
		inner := bytes.TrimSpace([]byte(s))
		if len(inner) == 0 || bytes.Equal(inner, []byte("null")) {
			return nil, false
		}
		return inner, true
	}
	return raw, true
}

func parseSkills(raw []byte) ([]string, error) {
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("must be a JSON array of strings")
	}
	skills := make([]string, 0, len(items))
	total := 0
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
			total += utf8.RuneCountInString(s)
		}
	}
	if total > maxSkillsLength {
		return nil, fmt.Errorf("must be at most %d characters in total", maxSkillsLength)
	}
	return skills, nil
}

func parseEducation(raw []byte) ([]profile.EducationEntry, error) {
	if raw[0] == '{' {
		var one profile.EducationEntry
		if err := json.Unmarshal(raw, &one); err != nil {
			return nil, fmt.Errorf("must be a JSON array of education entries")
		}
		return []profile.EducationEntry{one}, nil
	}
	var entries []profile.EducationEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("must be a JSON array of education entries")
	}
	return entries, nil
}

func parseCertificates(raw []byte) ([]profile.Certificate, []apperror.FieldError) {
	var items []certificateRequest
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, []apperror.FieldError{{Field: "certificates", Message: "must be a JSON array of certificates"}}
	}

	var errs []apperror.FieldError
	certs := make([]profile.Certificate, len(items))
	for i, item := range items {
		start, err := parseDate(item.StartDate)
		if err != nil {
			errs = append(errs, apperror.FieldError{Field: fmt.Sprintf("certificates[%d].startDate", i), Message: err.Error()})
		}
		end, err := parseDate(item.EndDate)
		if err != nil {
			errs = append(errs, apperror.FieldError{Field: fmt.Sprintf("certificates[%d].endDate", i), Message: err.Error()})
		}
		certs[i] = profile.Certificate{
			Name:        nilIfEmptyPtr(item.CertificateName),
			StartDate:   start,
			EndDate:     end,
			Description: nilIfEmptyPtr(item.Description),
		}
	}
	return certs, errs
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp, whose date
// part is kept.
func parseDate(v *string) (*time.Time, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	s := strings.TrimSpace(*v)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d, nil
	}
	return nil, fmt.Errorf("must be a date in YYYY-MM-DD format")
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nilIfEmptyPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return nilIfEmpty(strings.TrimSpace(*s))
}

// Bio DTOs

type generateBioRequest struct {
	FirstName       string   `json:"firstName" binding:"required"`
	LastName        string   `json:"lastName"`
	Skills          []string `json:"skills"`
	FieldOfStudy    string   `json:"fieldOfStudy"`
	EducationLevel  string   `json:"educationLevel"`
	University      string   `json:"university"`
	ExperienceLevel string   `json:"experienceLevel"`
	Certificates    []string `json:"certificates"`
}
