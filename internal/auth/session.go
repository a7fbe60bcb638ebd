package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultSessionTTL = 7 * 24 * time.Hour
	tokenBytes        = 32
)

var (
	ErrInvalidUsername    = errors.New("invalid username")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9_.-]{2,31}$`)

// Account is the public view of an account.
type Account struct {
	UserID   string
	Username string
	Guest    bool
}

type account struct {
	userID       string
	username     string
	passwordHash []byte
	guest        bool
	lastLogin    time.Time
}

type session struct {
	userID    string
	expiresAt time.Time
}

// Manager keeps accounts and sessions in memory. Gateway contracts stay
// the same if this ever moves to persistent storage.
type Manager struct {
	mu sync.Mutex

	sessionTTL time.Duration
	sessions   map[string]session // token -> session
	byUserID   map[string]*account
	byUsername map[string]string // normalized username -> userID

	onNewAccount func(userID string)
}

// SetAccountHook registers a callback for freshly created accounts,
// used to seed their wallet. Runs on its own goroutine.
func (m *Manager) SetAccountHook(hook func(userID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onNewAccount = hook
}

func NewManager() *Manager {
	return &Manager{
		sessionTTL: defaultSessionTTL,
		sessions:   make(map[string]session),
		byUserID:   make(map[string]*account),
		byUsername: make(map[string]string),
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateUsername(username string) error {
	if !usernamePattern.MatchString(strings.TrimSpace(username)) {
		return ErrInvalidUsername
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 6 || len(password) > 72 {
		return ErrInvalidPassword
	}
	return nil
}

// Register creates an account and returns it with a fresh session token.
func (m *Manager) Register(username, password string) (Account, string, error) {
	if err := validateUsername(username); err != nil {
		return Account{}, "", err
	}
	if err := validatePassword(password); err != nil {
		return Account{}, "", err
	}
	normalized := normalizeUsername(username)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Account{}, "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byUsername[normalized]; taken {
		return Account{}, "", ErrUsernameTaken
	}
	acct := &account{
		userID:       uuid.NewString(),
		username:     normalized,
		passwordHash: hash,
		lastLogin:    time.Now(),
	}
	m.byUserID[acct.userID] = acct
	m.byUsername[normalized] = acct.userID
	m.notifyNewAccountLocked(acct.userID)

	token := m.issueSessionLocked(acct.userID, acct.lastLogin)
	return acct.public(), token, nil
}

func (m *Manager) notifyNewAccountLocked(userID string) {
	if m.onNewAccount != nil {
		go m.onNewAccount(userID)
	}
}

// Login checks credentials and returns a fresh session.
func (m *Manager) Login(username, password string) (Account, string, error) {
	normalized := normalizeUsername(username)
	if normalized == "" || password == "" {
		return Account{}, "", ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	userID, exists := m.byUsername[normalized]
	if !exists {
		return Account{}, "", ErrInvalidCredentials
	}
	acct := m.byUserID[userID]
	if len(acct.passwordHash) == 0 ||
		bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)) != nil {
		return Account{}, "", ErrInvalidCredentials
	}

	acct.lastLogin = time.Now()
	token := m.issueSessionLocked(acct.userID, acct.lastLogin)
	return acct.public(), token, nil
}

// Guest creates an anonymous throwaway account with a session.
func (m *Manager) Guest() (Account, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acct := &account{
		userID:    uuid.NewString(),
		guest:     true,
		lastLogin: time.Now(),
	}
	acct.username = "guest-" + acct.userID[:8]
	m.byUserID[acct.userID] = acct
	m.notifyNewAccountLocked(acct.userID)

	token := m.issueSessionLocked(acct.userID, acct.lastLogin)
	return acct.public(), token
}

// ResolveSession validates a token and slides its expiry.
func (m *Manager) ResolveSession(token string) (Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token == "" {
		return Account{}, false
	}
	sess, exists := m.sessions[token]
	if !exists {
		return Account{}, false
	}
	now := time.Now()
	if !now.Before(sess.expiresAt) {
		delete(m.sessions, token)
		return Account{}, false
	}
	sess.expiresAt = now.Add(m.sessionTTL)
	m.sessions[token] = sess

	acct, exists := m.byUserID[sess.userID]
	if !exists {
		return Account{}, false
	}
	return acct.public(), true
}

// Logout invalidates a session token.
func (m *Manager) Logout(token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

func (m *Manager) issueSessionLocked(userID string, now time.Time) string {
	token := mustToken()
	m.sessions[token] = session{
		userID:    userID,
		expiresAt: now.Add(m.sessionTTL),
	}
	return token
}

func (a *account) public() Account {
	return Account{UserID: a.userID, Username: a.username, Guest: a.guest}
}

func mustToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
