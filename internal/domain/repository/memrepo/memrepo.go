// Package memrepo is an in-memory implementation of the repository
// interfaces. Transactions are serialized and roll back on error, which
// gives the same isolation the Postgres row locks provide for one event.
package memrepo

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/Ali-LB/dbcc/internal/common"
	"github.com/Ali-LB/dbcc/internal/domain/model"
	"github.com/Ali-LB/dbcc/internal/domain/repository"
)

type snapshot struct {
	users  map[string]model.User
	tokens map[string]model.Token
	events map[string]model.Event
	regs   map[string]model.Registration
}

// Store holds all tables. Use the accessor methods to obtain repositories
// bound to it.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data snapshot
	fail map[string]error
	now  func() time.Time
}

func New() *Store {
	return &Store{
		data: snapshot{
			users:  map[string]model.User{},
			tokens: map[string]model.Token{},
			events: map[string]model.Event{},
			regs:   map[string]model.Registration{},
		},
		fail: map[string]error{},
		now:  time.Now,
	}
}

// FailOn makes every call to method return err until cleared with a nil err.
// Method names are "<Table>.<Method>", for example "Events.LockByID".
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, method)
		return
	}
	s.fail[method] = err
}

func (s *Store) Users() repository.UserRepository                 { return &users{s} }
func (s *Store) Tokens() repository.TokenRepository               { return &tokens{s} }
func (s *Store) Events() repository.EventRepository               { return &events{s} }
func (s *Store) Registrations() repository.RegistrationRepository { return &registrations{s} }

// WithinTx runs fn with exclusive access to the store. The tx passed to fn is
// always nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := s.failure("Tx.Begin"); err != nil {
		return err
	}

	s.mu.Lock()
	saved := s.data.clone()
	s.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		s.mu.Lock()
		s.data = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

// Token returns the stored token with hash, if any.
func (s *Store) Token(hash string) (model.Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.data.tokens[hash]
	return t, ok
}

// TokenCount returns the number of stored tokens of kind.
func (s *Store) TokenCount(kind model.TokenKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.data.tokens {
		if t.Kind == kind {
			n++
		}
	}
	return n
}

func (s *Store) failure(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail[method]
}

func (d snapshot) clone() snapshot {
	c := snapshot{
		users:  make(map[string]model.User, len(d.users)),
		tokens: make(map[string]model.Token, len(d.tokens)),
		events: make(map[string]model.Event, len(d.events)),
		regs:   make(map[string]model.Registration, len(d.regs)),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.tokens {
		c.tokens[k] = v
	}
	for k, v := range d.events {
		c.events[k] = v
	}
	for k, v := range d.regs {
		c.regs[k] = v
	}
	return c
}

type users struct{ s *Store }

func (r *users) Create(_ context.Context, _ *sql.Tx, user *model.User) error {
	if err := r.s.failure("Users.Create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if u.Username == user.Username {
			return common.ErrDuplicateUsername
		}
		if u.Email == user.Email {
			return common.ErrDuplicateEmail
		}
	}
	now := r.s.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.data.users[user.ID] = *user
	return nil
}

func (r *users) find(method string, match func(model.User) bool) (*model.User, error) {
	if err := r.s.failure(method); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, common.ErrUserNotFound
}

func (r *users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find("Users.FindByEmail", func(u model.User) bool { return u.Email == email })
}

func (r *users) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find("Users.FindByUsername", func(u model.User) bool { return u.Username == username })
}

func (r *users) FindByID(_ context.Context, id string) (*model.User, error) {
	return r.find("Users.FindByID", func(u model.User) bool { return u.ID == id })
}

func (r *users) List(_ context.Context) ([]model.User, error) {
	if err := r.s.failure("Users.List"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.User
	for _, u := range r.s.data.users {
		u.RSVPCount = 0
		for _, reg := range r.s.data.regs {
			if reg.UserID == u.ID {
				u.RSVPCount++
			}
		}
		u.HashedPassword = ""
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *users) Update(_ context.Context, user *model.User) error {
	if err := r.s.failure("Users.Update"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.data.users[user.ID]
	if !ok {
		return common.ErrUserNotFound
	}
	for _, u := range r.s.data.users {
		if u.ID != user.ID && u.Email == user.Email {
			return common.ErrDuplicateEmail
		}
	}
	cur.FirstName, cur.LastName, cur.Email = user.FirstName, user.LastName, user.Email
	cur.IsActive, cur.Role = user.IsActive, user.Role
	cur.UpdatedAt = r.s.now().UTC()
	r.s.data.users[user.ID] = cur
	user.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r *users) Delete(_ context.Context, id string) error {
	if err := r.s.failure("Users.Delete"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[id]; !ok {
		return common.ErrUserNotFound
	}
	delete(r.s.data.users, id)
	for h, t := range r.s.data.tokens {
		if t.UserID == id {
			delete(r.s.data.tokens, h)
		}
	}
	for k, reg := range r.s.data.regs {
		if reg.UserID == id {
			delete(r.s.data.regs, k)
		}
	}
	return nil
}

func (r *users) modify(method, id string, fn func(*model.User)) error {
	if err := r.s.failure(method); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return common.ErrUserNotFound
	}
	fn(&u)
	u.UpdatedAt = r.s.now().UTC()
	r.s.data.users[id] = u
	return nil
}

func (r *users) Activate(_ context.Context, _ *sql.Tx, id string) error {
	return r.modify("Users.Activate", id, func(u *model.User) { u.IsActive = true })
}

func (r *users) UpdatePassword(_ context.Context, _ *sql.Tx, id, hashedPassword string) error {
	return r.modify("Users.UpdatePassword", id, func(u *model.User) { u.HashedPassword = hashedPassword })
}

func (r *users) AdminExists(_ context.Context) (bool, error) {
	if err := r.s.failure("Users.AdminExists"); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if u.Role == model.RoleAdmin {
			return true, nil
		}
	}
	return false, nil
}

type tokens struct{ s *Store }

func (r *tokens) Create(_ context.Context, _ *sql.Tx, token *model.Token) error {
	if err := r.s.failure("Tokens.Create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[token.UserID]; !ok {
		return common.ErrUserNotFound
	}
	r.s.data.tokens[token.Hash] = *token
	return nil
}

func (r *tokens) Consume(_ context.Context, _ *sql.Tx, hash string, kind model.TokenKind, now time.Time) (string, error) {
	if err := r.s.failure("Tokens.Consume"); err != nil {
		return "", err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.data.tokens[hash]
	switch {
	case !ok:
		return "", common.ErrInvalidToken
	case t.Kind != kind:
		return "", common.ErrWrongTokenKind
	case t.Expired(now):
		return "", common.ErrTokenExpired
	}
	delete(r.s.data.tokens, hash)
	return t.UserID, nil
}

type events struct{ s *Store }

func (r *events) Create(_ context.Context, e *model.Event) error {
	if err := r.s.failure("Events.Create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, cur := range r.s.data.events {
		if cur.Slug == e.Slug {
			return common.ErrDuplicateSlug
		}
	}
	now := r.s.now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	r.s.data.events[e.ID] = *e
	return nil
}

func (r *events) Update(_ context.Context, e *model.Event) error {
	if err := r.s.failure("Events.Update"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.events[e.ID]; !ok {
		return common.ErrEventNotFound
	}
	for _, cur := range r.s.data.events {
		if cur.ID != e.ID && cur.Slug == e.Slug {
			return common.ErrDuplicateSlug
		}
	}
	e.UpdatedAt = r.s.now().UTC()
	r.s.data.events[e.ID] = *e
	return nil
}

func (r *events) Delete(_ context.Context, id string) error {
	if err := r.s.failure("Events.Delete"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.events[id]; !ok {
		return common.ErrEventNotFound
	}
	delete(r.s.data.events, id)
	for k, reg := range r.s.data.regs {
		if reg.EventID == id {
			delete(r.s.data.regs, k)
		}
	}
	return nil
}

// decorate fills the derived columns; callers hold mu.
func (r *events) decorate(e model.Event, viewerID string) model.Event {
	e.ConfirmedCount, e.HasRSVPed = 0, false
	for _, reg := range r.s.data.regs {
		if reg.EventID != e.ID {
			continue
		}
		if reg.Status == model.RegistrationConfirmed {
			e.ConfirmedCount++
		}
		if viewerID != "" && reg.UserID == viewerID {
			e.HasRSVPed = true
		}
	}
	return e
}

func (r *events) FindByID(_ context.Context, id, viewerID string) (*model.Event, error) {
	if err := r.s.failure("Events.FindByID"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.data.events[id]
	if !ok {
		return nil, common.ErrEventNotFound
	}
	e = r.decorate(e, viewerID)
	return &e, nil
}

func (r *events) List(_ context.Context, filter repository.EventFilter) ([]model.Event, error) {
	if err := r.s.failure("Events.List"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Event{}
	for _, e := range r.s.data.events {
		if filter.VisibleOnly && !e.Visible() {
			continue
		}
		out = append(out, r.decorate(e, filter.ViewerID))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *events) LockByID(_ context.Context, _ *sql.Tx, id string) (*model.Event, error) {
	if err := r.s.failure("Events.LockByID"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.data.events[id]
	if !ok {
		return nil, common.ErrEventNotFound
	}
	return &e, nil
}

type registrations struct{ s *Store }

func (r *registrations) Exists(_ context.Context, _ *sql.Tx, userID, eventID string) (bool, error) {
	if err := r.s.failure("Registrations.Exists"); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, reg := range r.s.data.regs {
		if reg.UserID == userID && reg.EventID == eventID {
			return true, nil
		}
	}
	return false, nil
}

func (r *registrations) CountConfirmed(_ context.Context, _ *sql.Tx, eventID string) (int, error) {
	if err := r.s.failure("Registrations.CountConfirmed"); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, reg := range r.s.data.regs {
		if reg.EventID == eventID && reg.Status == model.RegistrationConfirmed {
			n++
		}
	}
	return n, nil
}

func (r *registrations) Create(_ context.Context, _ *sql.Tx, reg *model.Registration) error {
	if err := r.s.failure("Registrations.Create"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, cur := range r.s.data.regs {
		if cur.UserID == reg.UserID && cur.EventID == reg.EventID {
			return common.ErrAlreadyRegistered
		}
	}
	if _, ok := r.s.data.users[reg.UserID]; !ok {
		return common.ErrUserNotFound
	}
	if _, ok := r.s.data.events[reg.EventID]; !ok {
		return common.ErrEventNotFound
	}
	reg.CreatedAt = r.s.now().UTC()
	r.s.data.regs[reg.ID] = *reg
	return nil
}

func (r *registrations) Delete(_ context.Context, _ *sql.Tx, userID, eventID string) error {
	if err := r.s.failure("Registrations.Delete"); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for k, reg := range r.s.data.regs {
		if reg.UserID == userID && reg.EventID == eventID {
			delete(r.s.data.regs, k)
			return nil
		}
	}
	return common.ErrNotRegistered
}

func (r *registrations) ListByUser(_ context.Context, userID string) ([]model.Registration, error) {
	if err := r.s.failure("Registrations.ListByUser"); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Registration{}
	for _, reg := range r.s.data.regs {
		if reg.UserID != userID || reg.Status != model.RegistrationConfirmed {
			continue
		}
		e, ok := r.s.data.events[reg.EventID]
		if !ok {
			continue
		}
		reg.Event = &model.EventSummary{
			ID: e.ID, Title: e.Title, Slug: e.Slug, Description: e.Description,
			Location: e.Location, Date: e.Date, IsActive: e.IsActive,
		}
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Event.Date.Before(out[j].Event.Date) })
	return out, nil
}

var (
	_ repository.Transactor             = (*Store)(nil)
	_ repository.UserRepository         = (*users)(nil)
	_ repository.TokenRepository        = (*tokens)(nil)
	_ repository.EventRepository        = (*events)(nil)
	_ repository.RegistrationRepository = (*registrations)(nil)
)
