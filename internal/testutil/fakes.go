// Package testutil holds in-memory implementations of the repository and
// service ports, shared by use case and HTTP tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/internal/domain/profile"
	"github.com/khoahotran/profile-portal/internal/domain/upload"
	"github.com/khoahotran/profile-portal/internal/domain/user"
	"github.com/khoahotran/profile-portal/pkg/apperror"
)

// Store keeps users, profiles and certificates in memory and mirrors the
// constraints of the SQL schema that matter to callers.
type Store struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*user.User
	profiles map[uuid.UUID]*profile.Profile
	certs    map[uuid.UUID][]profile.Certificate
	nextCert int64

	// FailUpdate, when set, makes the next Update fail after the scalar write.
	FailUpdate error
}

func NewStore() *Store {
	return &Store{
		users:    map[uuid.UUID]*user.User{},
		profiles: map[uuid.UUID]*profile.Profile{},
		certs:    map[uuid.UUID][]profile.Certificate{},
	}
}

func (s *Store) Users() user.Repository       { return (*userRepo)(s) }
func (s *Store) Profiles() profile.Repository { return (*profileRepo)(s) }

type userRepo Store

func (r *userRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperror.NewConflict("User", "email", u.Email)
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	r.profiles[u.ID] = &profile.Profile{
		UserID:    u.ID,
		Email:     u.Email,
		Skills:    []string{},
		Education: []profile.EducationEntry{},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	return nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("User", email)
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NewNotFound("User", id.String())
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperror.NewNotFound("User", id.String())
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}

type profileRepo Store

func (r *profileRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*profile.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, apperror.NewNotFound("User", userID.String())
	}
	cp := *p
	cp.Certificates = append([]profile.Certificate{}, r.certs[userID]...)
	return &cp, nil
}

func (r *profileRepo) ListCertificates(_ context.Context, userID uuid.UUID) ([]profile.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]profile.Certificate{}, r.certs[userID]...), nil
}

// Update stages every change on copies and swaps them in only when the whole
// write succeeds.
func (r *profileRepo) Update(_ context.Context, upd *profile.Update) (*profile.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.profiles[upd.UserID]
	if !ok {
		return nil, apperror.NewNotFound("User", upd.UserID.String())
	}

	next := *current
	next.FirstName, next.LastName = upd.FirstName, upd.LastName
	next.Phone, next.Address, next.Bio = upd.Phone, upd.Address, upd.Bio
	next.Skills, next.Education = upd.Skills, upd.Education
	if upd.ProfilePhoto != nil {
		next.ProfilePhoto = upd.ProfilePhoto
	}
	if upd.ResumeFile != nil {
		next.ResumeFile = upd.ResumeFile
	}
	next.UpdatedAt = time.Now().UTC()

	if err := r.FailUpdate; err != nil {
		r.FailUpdate = nil
		return nil, apperror.NewInternal("forced failure", err)
	}

	certs := r.certs[upd.UserID]
	nextID := r.nextCert
	if upd.ReplaceCertificates {
		certs = make([]profile.Certificate, 0, len(upd.Certificates))
		for i, c := range upd.Certificates {
			if c.Name == nil {
				return nil, apperror.NewInternal("failed to insert certificate",
					fmt.Errorf("certificate %d: null value in column \"certificate_name\" violates not-null constraint", i+1))
			}
			nextID++
			c.ID = nextID
			c.UserID = upd.UserID
			c.CreatedAt = next.UpdatedAt
			certs = append(certs, c)
		}
	}

	result := &profile.UpdateResult{
		ReplacedFiles: profile.Superseded(current.ProfilePhoto, current.ResumeFile, upd.ProfilePhoto, upd.ResumeFile),
	}
	r.profiles[upd.UserID] = &next
	r.certs[upd.UserID] = certs
	r.nextCert = nextID
	return result, nil
}

func (r *profileRepo) Delete(_ context.Context, userID uuid.UUID) (*profile.Deleted, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, apperror.NewNotFound("User", userID.String())
	}
	files := p.FilePaths()
	delete(r.profiles, userID)
	delete(r.users, userID)
	delete(r.certs, userID)
	return &profile.Deleted{Files: files}, nil
}

// ResetTokens is a single-use token store without expiry.
type ResetTokens struct {
	mu     sync.Mutex
	tokens map[string]uuid.UUID
}

func NewResetTokens() *ResetTokens {
	return &ResetTokens{tokens: map[string]uuid.UUID{}}
}

func (t *ResetTokens) Save(_ context.Context, digest string, userID uuid.UUID, _ time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tokens[digest] = userID
	return nil
}

func (t *ResetTokens) Consume(_ context.Context, digest string) (uuid.UUID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.tokens[digest]
	if !ok {
		return uuid.Nil, apperror.NewNotFound("Reset token", "digest")
	}
	delete(t.tokens, digest)
	return id, nil
}

func (t *ResetTokens) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tokens)
}

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	events []service.UserEvent
	Err    error
}

func (p *Publisher) PublishUserEvent(_ context.Context, evt service.UserEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.Err
}

func (p *Publisher) Events() []service.UserEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]service.UserEvent{}, p.events...)
}

// Last returns the most recent event of the given type.
func (p *Publisher) Last(t service.UserEventType) (service.UserEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].EventType == t {
			return p.events[i], true
		}
	}
	return service.UserEvent{}, false
}

// Storage keeps stored files in memory under "uploads/<dir>/<name>" refs.
type Storage struct {
	mu       sync.Mutex
	files    map[string][]byte
	StoreErr error
}

func NewStorage() *Storage {
	return &Storage{files: map[string][]byte{}}
}

func (s *Storage) Store(_ context.Context, slot upload.Slot, name string, r io.Reader) (string, error) {
	if s.StoreErr != nil {
		return "", s.StoreErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	ref := "uploads/" + slot.Dir() + "/" + name
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[ref] = buf.Bytes()
	return ref, nil
}

func (s *Storage) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, ref)
	return nil
}

func (s *Storage) Refs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs := make([]string, 0, len(s.files))
	for ref := range s.files {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

func (s *Storage) Has(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[ref]
	return ok
}

// Mailer records sent mail.
type Mailer struct {
	mu   sync.Mutex
	Sent []service.Mail
	Err  error
}

func (m *Mailer) Send(_ context.Context, mail service.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, mail)
	return nil
}

// LLM returns a canned reply and remembers the last prompt.
type LLM struct {
	Reply  string
	Err    error
	Prompt string
}

func (l *LLM) GenerateText(_ context.Context, prompt string) (string, error) {
	l.Prompt = prompt
	return l.Reply, l.Err
}

func Ptr[T any](v T) *T { return &v }
