package service_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Ali-LB/dbcc/internal/app/service"
	"github.com/Ali-LB/dbcc/internal/common/security"
	"github.com/Ali-LB/dbcc/internal/domain/model"
	"github.com/Ali-LB/dbcc/internal/domain/repository/memrepo"
	"github.com/Ali-LB/dbcc/internal/lib/logger/sl"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "secret123"

type recordingNotifier struct {
	mu   sync.Mutex
	sent []model.Notification
	err  error
	gate chan struct{}
}

func (n *recordingNotifier) Send(_ context.Context, msg model.Notification) error {
	n.mu.Lock()
	gate := n.gate
	n.mu.Unlock()
	if gate != nil {
		<-gate
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

// hold blocks every Send until the returned release func is called.
func (n *recordingNotifier) hold(t *testing.T) (release func()) {
	t.Helper()
	gate := make(chan struct{})
	n.mu.Lock()
	n.gate = gate
	n.mu.Unlock()

	var once sync.Once
	release = func() { once.Do(func() { close(gate) }) }
	t.Cleanup(release)
	return release
}

func (n *recordingNotifier) all() []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Notification(nil), n.sent...)
}

// last returns the most recent notification of kind sent to email.
func (n *recordingNotifier) last(t *testing.T, email string, kind model.TokenKind) model.Notification {
	t.Helper()
	sent := n.all()
	for i := len(sent) - 1; i >= 0; i-- {
		if sent[i].Email == email && sent[i].Kind == kind {
			return sent[i]
		}
	}
	t.Fatalf("no %s notification for %s", kind, email)
	return model.Notification{}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store    *memrepo.Store
	notifier *recordingNotifier
	clock    *clock

	tokens        *service.TokenService
	auth          *service.AuthService
	events        *service.EventService
	registrations *service.RegistrationService
	users         *service.UserAdminService
}

var userSeq atomic.Int64

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memrepo.New()
	notifier := &recordingNotifier{}
	clk := &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	log := sl.Discard()

	tokens := service.NewTokenService(log, store.Tokens(), store.Users(), store, hasher, notifier, service.TokenTTLs{
		Confirmation: 24 * time.Hour,
		Reset:        time.Hour,
	})
	tokens.SetClock(clk.Now)

	sessions := func(userID, role string) (string, error) { return "session:" + userID + ":" + role, nil }

	return &fixture{
		store:         store,
		notifier:      notifier,
		clock:         clk,
		tokens:        tokens,
		auth:          service.NewAuthService(log, store.Users(), tokens, store, hasher, sessions),
		events:        service.NewEventService(log, store.Events()),
		registrations: service.NewRegistrationService(log, store.Events(), store.Registrations(), store),
		users:         service.NewUserAdminService(log, store.Users(), hasher),
	}
}

// requestToken calls RequestToken and waits for the delivery it starts.
func (f *fixture) requestToken(ctx context.Context, email string, kind model.TokenKind) error {
	err := f.tokens.RequestToken(ctx, email, kind)
	f.tokens.Wait()
	return err
}

func newSignup() service.SignupRequest {
	n := userSeq.Add(1)
	return service.SignupRequest{
		Username:  fmt.Sprintf("member_%d", n),
		FirstName: gofakeit.FirstName(),
		LastName:  gofakeit.LastName(),
		Email:     fmt.Sprintf("member%d@example.com", n),
		Password:  testPassword,
	}
}

// signup registers an account and returns it with its confirmation token.
func (f *fixture) signup(t *testing.T) (*model.User, string) {
	t.Helper()
	resp, err := f.auth.Signup(context.Background(), newSignup())
	require.NoError(t, err)
	n := f.notifier.last(t, resp.User.Email, model.TokenKindEmailConfirmation)
	return resp.User, n.Token
}

// member returns the principal of a confirmed member account.
func (f *fixture) member(t *testing.T) (model.Principal, *model.User) {
	t.Helper()
	user, token := f.signup(t)
	_, err := f.tokens.ConfirmEmail(context.Background(), token)
	require.NoError(t, err)
	return model.Principal{UserID: user.ID, Role: model.RoleMember}, user
}

func (f *fixture) admin(t *testing.T) model.Principal {
	t.Helper()
	n := userSeq.Add(1)
	admin := &model.User{
		ID:        uuid.NewString(),
		Username:  fmt.Sprintf("admin_%d", n),
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     fmt.Sprintf("admin%d@example.com", n),
		IsActive:  true,
		Role:      model.RoleAdmin,
	}
	require.NoError(t, f.store.Users().Create(context.Background(), nil, admin))
	return model.Principal{UserID: admin.ID, Role: model.RoleAdmin}
}

// event creates an active, published event with the given capacity (0 for unlimited).
func (f *fixture) event(t *testing.T, admin model.Principal, capacity int) *model.Event {
	t.Helper()
	e, err := f.events.Create(context.Background(), admin, service.CreateEventRequest{
		Title:        gofakeit.Company() + " meetup " + uuid.NewString()[:8],
		Description:  "Monthly gathering hosted by " + gofakeit.Company(),
		Location:     gofakeit.City(),
		Date:         f.clock.Now().Add(7 * 24 * time.Hour),
		MaxAttendees: &capacity,
		Published:    true,
	})
	require.NoError(t, err)
	return e
}
