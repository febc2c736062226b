package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"todolist/internal/mailer"
	"todolist/internal/models"
	"todolist/internal/repositories"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes, so longer passwords are refused.
const maxPasswordBytes = 72

// dummyHash stands in for the stored hash of an unknown username, so a
// failed login costs one bcrypt comparison whether or not the account exists.
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("no account has this password"), bcrypt.DefaultCost)
	return hash
})

const (
	verificationSubject = "Confirm your account"
	verificationBody    = "Click the link to confirm your account: %s"
)

// Session is the per-caller authentication state the account service drives.
type Session interface {
	Start(accountID uint) error
	End() error
	CurrentAccount() (uint, bool)
}

// AccountService handles registration, email verification and login.
type AccountService struct {
	accounts repositories.AccountRepository
	tasks    repositories.TaskRepository
	tokens   *TokenService
	sender   mailer.Sender
	baseURL  string
	validate *validator.Validate
	compare  func(hash, password []byte) error
}

// NewAccountService creates a new AccountService. baseURL is the public
// origin used to build confirmation links.
func NewAccountService(
	accounts repositories.AccountRepository,
	tasks repositories.TaskRepository,
	tokens *TokenService,
	sender mailer.Sender,
	baseURL string,
) *AccountService {
	return &AccountService{
		accounts: accounts,
		tasks:    tasks,
		tokens:   tokens,
		sender:   sender,
		baseURL:  strings.TrimRight(baseURL, "/"),
		validate: validator.New(),
		compare:  bcrypt.CompareHashAndPassword,
	}
}

type credentials struct {
	Username string `validate:"min=3,max=50"`
	Password string `validate:"min=8"`
}

// Register creates a new, unverified account.
//
// A taken username is reported before anything else is checked. A taken
// email can only be detected once the address is known to be valid, since
// stored addresses always are.
func (s *AccountService) Register(username, password, email string) (*models.Account, error) {
	if _, err := s.accounts.GetByUsername(username); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, storageError(err)
	}

	email, err := s.normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if _, err := s.accounts.GetByEmail(email); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, storageError(err)
	}

	if err := s.validate.Struct(credentials{Username: username, Password: password}); err != nil {
		return nil, ErrWeakCredentials
	}
	if len(password) > maxPasswordBytes {
		return nil, ErrWeakCredentials
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		Verified: false,
	}
	if err := s.accounts.Create(account); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrAlreadyExists
		}
		log.Printf("Error registering account %s: %v", username, err)
		return nil, storageError(err)
	}

	log.Printf("Registered account %d (%s)", account.ID, account.Username)
	return account, nil
}

// normalizeEmail checks the address syntax and lower-cases the domain part.
func (s *AccountService) normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if err := s.validate.Var(email, "required,email,max=255"); err != nil {
		return "", ErrInvalidEmail
	}
	at := strings.LastIndex(email, "@")
	return email[:at] + "@" + strings.ToLower(email[at+1:]), nil
}

// RequestVerification emails a confirmation link to an unverified account.
func (s *AccountService) RequestVerification(ctx context.Context, email string) error {
	normalized, err := s.normalizeEmail(email)
	if err != nil {
		// an address that cannot be valid cannot belong to an account
		return ErrNotFound
	}

	account, err := s.accounts.GetByEmail(normalized)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrNotFound
		}
		return storageError(err)
	}
	if account.Verified {
		return ErrAlreadyVerified
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return err
	}

	link := s.ConfirmationLink(token)
	msg := mailer.NewMessage([]string{account.Email}, verificationSubject, fmt.Sprintf(verificationBody, link))
	if err := s.sender.Send(ctx, msg); err != nil {
		log.Printf("Error sending verification mail to account %d: %v", account.ID, err)
		return deliveryError(err)
	}

	log.Printf("Verification mail %s sent to account %d, link valid for %s", msg.ID, account.ID, s.tokens.MaxAge())
	return nil
}

// ConfirmationLink returns the absolute URL that confirms token.
func (s *AccountService) ConfirmationLink(token string) string {
	return s.baseURL + "/confirm_email/" + token
}

// ConfirmVerification marks the account carried by token as verified and
// returns its id. Confirming an already verified account succeeds.
func (s *AccountService) ConfirmVerification(token string) (uint, error) {
	accountID, err := s.tokens.Parse(token)
	if err != nil {
		return 0, ErrInvalidOrExpiredToken
	}

	if err := s.accounts.MarkVerified(accountID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return 0, ErrInvalidOrExpiredToken
		}
		return 0, storageError(err)
	}

	log.Printf("Account %d verified", accountID)
	return accountID, nil
}

// Login ends any session the caller already holds, checks the credentials
// and, for a verified account, starts a new session and returns its open tasks.
//
// A correct password on an unverified account yields ErrNotVerified rather
// than ErrInvalidCredentials.
func (s *AccountService) Login(sess Session, username, password string) ([]models.Task, error) {
	if err := s.ResetSession(sess); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByUsername(username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = s.compare(dummyHash(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, storageError(err)
	}

	if err := s.compare([]byte(account.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !account.Verified {
		return nil, ErrNotVerified
	}

	if err := sess.Start(account.ID); err != nil {
		return nil, storageError(err)
	}

	tasks, err := s.tasks.ListOpenByAccount(account.ID)
	if err != nil {
		return nil, storageError(err)
	}
	return tasks, nil
}

// ResetSession ends the caller's session if there is one.
func (s *AccountService) ResetSession(sess Session) error {
	if _, ok := sess.CurrentAccount(); !ok {
		return nil
	}
	if err := sess.End(); err != nil {
		return storageError(err)
	}
	return nil
}

// Logout ends the caller's session.
func (s *AccountService) Logout(sess Session) error {
	if _, ok := sess.CurrentAccount(); !ok {
		return ErrUnauthenticated
	}
	if err := sess.End(); err != nil {
		return storageError(err)
	}
	return nil
}
