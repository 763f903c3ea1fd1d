package profile

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EducationEntry is stored inside the users.education JSONB column.
type EducationEntry struct {
	Degree            *string `json:"degree"`
	Institution       *string `json:"institution"`
	Course            *string `json:"course"`
	FieldOfStudy      *string `json:"fieldOfStudy"`
	StartDate         *string `json:"startDate"`
	EndDate           *string `json:"endDate"`
	CurrentlyStudying bool    `json:"currentlyStudying"`
	ExperienceLevel   *string `json:"experienceLevel"`
}

// Certificate rows belong to exactly one user and are replaced as a set.
// IDs grow with insertion order, so ordering by ID is ordering by submission.
type Certificate struct {
	ID          int64      `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Name        *string    `json:"certificate_name"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Description *string    `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Profile struct {
	UserID       uuid.UUID        `json:"id"`
	Email        string           `json:"email"`
	FirstName    *string          `json:"first_name"`
	LastName     *string          `json:"last_name"`
	Phone        *string          `json:"phone"`
	Address      *string          `json:"address"`
	Bio          *string          `json:"bio"`
	Skills       []string         `json:"skills"`
	Education    []EducationEntry `json:"education"`
	ProfilePhoto *string          `json:"profile_photo"`
	ResumeFile   *string          `json:"resume_file"`
	Certificates []Certificate    `json:"certificates"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Update is one profile write. Scalar fields are authoritative: nil stores
// NULL. File paths coalesce: nil keeps whatever is stored. Certificates are
// only touched when ReplaceCertificates is set, and then replaced wholesale.
type Update struct {
	UserID    uuid.UUID
	FirstName *string
	LastName  *string
	Phone     *string
	Address   *string
	Bio       *string
	Skills    []string
	Education []EducationEntry

	ProfilePhoto *string
	ResumeFile   *string

	ReplaceCertificates bool
	Certificates        []Certificate
}

// UpdateResult reports stored file paths that the update superseded.
type UpdateResult struct {
	ReplacedFiles []string
}

// Deleted describes what a profile deletion left behind on file storage.
type Deleted struct {
	Files []string
}

type Repository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	ListCertificates(ctx context.Context, userID uuid.UUID) ([]Certificate, error)
	// Update applies the scalar merge and the certificate replacement in a
	// single transaction.
	Update(ctx context.Context, upd *Update) (*UpdateResult, error)
	Delete(ctx context.Context, userID uuid.UUID) (*Deleted, error)
}

// FilePaths returns the stored file paths of the profile, skipping empty ones.
func (p *Profile) FilePaths() []string {
	return nonEmpty(p.ProfilePhoto, p.ResumeFile)
}

// Superseded returns the old paths that a coalescing write of newPhoto and
// newResume will replace.
func Superseded(oldPhoto, oldResume, newPhoto, newResume *string) []string {
	var out []string
	if newPhoto != nil && oldPhoto != nil && *oldPhoto != "" && *oldPhoto != *newPhoto {
		out = append(out, *oldPhoto)
	}
	if newResume != nil && oldResume != nil && *oldResume != "" && *oldResume != *newResume {
		out = append(out, *oldResume)
	}
	return out
}

func nonEmpty(values ...*string) []string {
	var out []string
	for _, v := range values {
		if v != nil && *v != "" {
			out = append(out, *v)
		}
	}
	return out
}
