package stub

import (
	"crypto/rand"
	"math/big"
	"sync"
	"time"

	"console/internal/domain/service"
	"console/internal/errors"

	"github.com/google/uuid"
)

const (
	purposeChange = "change-password"
	purposeReset  = "reset-password"

	otpDigits = 6
)

var (
	errAccountNotFound   = errors.New("account not found")
	errWrongPassword     = errors.New("password does not match")
	errEmailTaken        = errors.New("email already registered")
	errChallengeNotFound = errors.New("challenge not found or superseded")
	errChallengeExpired  = errors.New("challenge expired")
	errWrongCode         = errors.New("code does not match")
)

// account is a seeded or signed-up console operator.
type account struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
}

// challenge is a pending OTP exchange. For password changes the requested new
// password travels with the challenge so phase 2 only needs token and code.
type challenge struct {
	Token       string
	Code        string
	Purpose     string
	Email       string
	NewPassword string
	ExpiresAt   time.Time
}

// store keeps accounts and challenges in memory. Issuing a new challenge for
// the same account and purpose invalidates the previous one, which is the
// strict reading of the resend contract.
type store struct {
	hasher service.PasswordHasher
	otpTTL time.Duration

	mu         sync.Mutex
	accounts   map[string]*account
	challenges map[string]*challenge
	now        func() time.Time
}

func newStore(hasher service.PasswordHasher, otpTTL time.Duration) *store {
	if otpTTL <= 0 {
		otpTTL = 10 * time.Minute
	}

	return &store{
		hasher:     hasher,
		otpTTL:     otpTTL,
		accounts:   make(map[string]*account),
		challenges: make(map[string]*challenge),
		now:        time.Now,
	}
}

// seed registers an account, replacing any existing one with the same email.
func (s *store) seed(email, password, name string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return errors.Wrap(err, "hash seed password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = &account{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}

	return nil
}

func (s *store) register(email, password, name string) error {
	s.mu.Lock()
	_, exists := s.accounts[email]
	s.mu.Unlock()
	if exists {
		return errors.WithStack(errEmailTaken)
	}

	return s.seed(email, password, name)
}

func (s *store) authenticate(email, password string) (*account, error) {
	s.mu.Lock()
	acct, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok {
		return nil, errors.WithStack(errAccountNotFound)
	}
	if !s.hasher.Check(password, acct.PasswordHash) {
		return nil, errors.WithStack(errWrongPassword)
	}

	return acct, nil
}

func (s *store) find(email string) (*account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[email]
	if !ok {
		return nil, errors.WithStack(errAccountNotFound)
	}

	return acct, nil
}

// issueChallenge mints a challenge and drops any live one for the same
// account and purpose.
func (s *store) issueChallenge(email, purpose, newPassword string) (*challenge, error) {
	code, err := randomCode(otpDigits)
	if err != nil {
		return nil, errors.Wrap(err, "generate otp code")
	}

	ch := &challenge{
		Token:       uuid.New().String(),
		Code:        code,
		Purpose:     purpose,
		Email:       email,
		NewPassword: newPassword,
		ExpiresAt:   s.now().Add(s.otpTTL),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for token, existing := range s.challenges {
		if existing.Email == email && existing.Purpose == purpose {
			delete(s.challenges, token)
		}
	}
	s.challenges[ch.Token] = ch

	return ch, nil
}

// consumeChallenge validates token+code and removes the challenge on success.
// A wrong code leaves the challenge live so the user may retry.
func (s *store) consumeChallenge(token, code, purpose string) (*challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[token]
	if !ok || ch.Purpose != purpose {
		return nil, errors.WithStack(errChallengeNotFound)
	}
	if s.now().After(ch.ExpiresAt) {
		delete(s.challenges, token)

		return nil, errors.WithStack(errChallengeExpired)
	}
	if ch.Code != code {
		return nil, errors.WithStack(errWrongCode)
	}

	delete(s.challenges, token)

	return ch, nil
}

func (s *store) setPassword(email, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return errors.Wrap(err, "hash new password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[email]
	if !ok {
		return errors.WithStack(errAccountNotFound)
	}
	acct.PasswordHash = hash

	return nil
}

// challengeCode exposes the pending code so integration tests can read the
// "email" out of band.
func (s *store) challengeCode(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.challenges[token]
	if !ok {
		return "", false
	}

	return ch.Code, true
}

func randomCode(digits int) (string, error) {
	max := big.NewInt(1)
	for range digits {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	code := n.String()
	for len(code) < digits {
		code = "0" + code
	}

	return code, nil
}
