package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmailTaken is returned when registering with an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned for unknown emails and wrong
	// passwords alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is a registered account. The password hash never leaves this package.
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// Service manages user accounts.
type Service struct {
	db     *sql.DB
	secret []byte
}

// NewService creates an account service signing tokens with secret.
func NewService(db *sql.DB, secret []byte) *Service {
	return &Service{db: db, secret: secret}
}

// Register creates an account and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, email, name, password string) (User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, "", ErrInvalidCredentials
	}

	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email=?`, email).Scan(&exists); err != nil {
		return User{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists > 0 {
		return User{}, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, "", fmt.Errorf("hash password: %w", err)
	}

	user := User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO users(id, email, name, hashed_password, created_at)
		VALUES(?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, string(hash), user.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return User{}, "", fmt.Errorf("insert user: %w", err)
	}

	token, err := GenerateToken(s.secret, user.ID)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// Login checks the credentials and returns the account with a fresh token.
func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user User
	var name sql.NullString
	var hash, createdAt string
	err := s.db.QueryRowContext(ctx, `SELECT id, email, name, hashed_password, created_at FROM users WHERE email=?`,
		email).Scan(&user.ID, &user.Email, &name, &hash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return User{}, "", fmt.Errorf("select user: %w", err)
	}
	user.Name = name.String
	if user.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return User{}, "", fmt.Errorf("parse created_at: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, "", ErrInvalidCredentials
	}

	token, err := GenerateToken(s.secret, user.ID)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// Get loads an account by id.
func (s *Service) Get(ctx context.Context, userID string) (User, error) {
	var user User
	var name sql.NullString
	var createdAt string
	err := s.db.QueryRowContext(ctx, `SELECT id, email, name, created_at FROM users WHERE id=?`,
		userID).Scan(&user.ID, &user.Email, &name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("select user: %w", err)
	}
	user.Name = name.String
	if user.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return User{}, fmt.Errorf("parse created_at: %w", err)
	}
	return user, nil
}
