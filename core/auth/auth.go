// Package auth signs users in and out and gates access on the current session.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/vanderidme15/vz-academias-sub001/core"
	"github.com/vanderidme15/vz-academias-sub001/core/session"
	"github.com/vanderidme15/vz-academias-sub001/core/user"
)

const (
	audience   = "academias"
	sessionKey = "auth" // session value holding the signed in user id
)

var (
	ErrAuthenticationFailed = errors.New("usuario o contraseña incorrectos")
	ErrAccountDeactivated   = errors.New("la cuenta está desactivada")
	ErrInvalidToken         = errors.New("sesión inválida o expirada")

	NowFunc = time.Now // mockable
)

type EventKind string

// Auth events
const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

type (
	// Session is a signed in user.
	Session struct {
		ID   string
		User user.User
	}

	Event struct {
		Kind      EventKind
		SessionID string
		User      *user.User // nil on sign out
	}

	// Provider resolves tokens to sessions and notifies auth state changes.
	Provider interface {
		CurrentUser(ctx context.Context, token string) (Session, error)
		// OnAuthStateChange subscribes `fn`; the returned func unsubscribes it.
		OnAuthStateChange(fn func(Event)) (unsubscribe func())
	}

	// Claims represents the authorization claims transmitted via a JWT. The JWT id is the session id.
	Claims struct {
		jwt.StandardClaims
		AcademyID string   `json:"academy_id,omitempty"`
		Username  string   `json:"username,omitempty"`
		Roles     []string `json:"roles,omitempty"`
	}

	Service struct {
		users      user.ServiceInterface
		sessions   session.Store
		secret     []byte
		issuer     string
		expiration time.Duration

		mu      sync.Mutex
		nextSub int
		subs    map[int]func(Event)
	}
)

var _ Provider = (*Service)(nil)

func NewService(conf *core.Config, users user.ServiceInterface, sessions session.Store) *Service {
	return &Service{
		users:      users,
		sessions:   sessions,
		secret:     []byte(conf.SecretKey),
		issuer:     conf.AppName,
		expiration: conf.Server.JWTExpirationDelta,
		subs:       make(map[int]func(Event)),
	}
}

// Login checks the credentials and opens a new session. It returns the session token.
func (svc *Service) Login(ctx context.Context, uname, pwd string) (string, Session, error) {
	usr, err := svc.users.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return "", Session{}, ErrAuthenticationFailed
		}
		return "", Session{}, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return "", Session{}, ErrAuthenticationFailed
	}
	if !usr.IsActive {
		return "", Session{}, ErrAccountDeactivated
	}
	if usr, err = svc.users.SetLastLogin(ctx, usr); err != nil {
		return "", Session{}, errors.Wrap(err, "setting lastLogin")
	}

	sess := Session{ID: session.NewID(), User: usr}
	token, err := svc.generateToken(svc.claims(sess))
	if err != nil {
		return "", Session{}, err
	}
	if err = svc.sessions.Save(ctx, sess.ID, sessionKey, usr.ID); err != nil {
		return "", Session{}, errors.Wrap(err, "saving session")
	}

	svc.emit(Event{Kind: SignedIn, SessionID: sess.ID, User: &usr})
	return token, sess, nil
}

func (svc *Service) claims(sess Session) *Claims {
	now := NowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        sess.ID,
			Issuer:    svc.issuer,
			Subject:   sess.User.ID,
			Audience:  audience,
			ExpiresAt: now.Add(svc.expiration).Unix(),
			IssuedAt:  now.Unix(),
		},
		AcademyID: sess.User.AcademyID,
		Username:  sess.User.Username,
		Roles:     sess.User.Roles,
	}
}

// generateToken generates a signed JWT token string representing the user Claims.
func (svc *Service) generateToken(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(svc.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (svc *Service) parseToken(token string) (*Claims, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return svc.secret, nil
	})
	if err != nil || claims.Id == "" || !claims.VerifyAudience(audience, true) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CurrentUser returns the session of a token. Tokens of closed sessions are invalid.
func (svc *Service) CurrentUser(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrInvalidToken
	}
	claims, err := svc.parseToken(token)
	if err != nil {
		return Session{}, err
	}

	var uid string
	ok, err := svc.sessions.Load(ctx, claims.Id, sessionKey, &uid)
	if err != nil {
		return Session{}, errors.Wrap(err, "loading session")
	}
	if !ok || uid != claims.Subject {
		return Session{}, ErrInvalidToken
	}

	usr, err := svc.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Session{}, ErrInvalidToken
		}
		return Session{}, errors.Wrap(err, "finding user by ID")
	}
	if !usr.IsActive {
		return Session{}, ErrAccountDeactivated
	}
	return Session{ID: claims.Id, User: usr}, nil
}

// Logout closes the session of `token`. Invalid tokens are ignored.
func (svc *Service) Logout(ctx context.Context, token string) error {
	claims, err := svc.parseToken(token)
	if err != nil {
		return nil
	}
	if err := svc.sessions.Clear(ctx, claims.Id); err != nil {
		return errors.Wrap(err, "clearing session")
	}
	svc.emit(Event{Kind: SignedOut, SessionID: claims.Id})
	return nil
}

func (svc *Service) OnAuthStateChange(fn func(Event)) func() {
	svc.mu.Lock()
	id := svc.nextSub
	svc.nextSub++
	svc.subs[id] = fn
	svc.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			svc.mu.Lock()
			delete(svc.subs, id)
			svc.mu.Unlock()
		})
	}
}

func (svc *Service) emit(ev Event) {
	svc.mu.Lock()
	subs := make([]func(Event), 0, len(svc.subs))
	for i := 0; i < svc.nextSub; i++ {
		if fn, ok := svc.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	svc.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
