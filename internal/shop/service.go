package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/session"
)

type Users interface {
	Count(ctx context.Context) (int, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u User) (User, error)
	ByUsername(ctx context.Context, username string) (User, error)
	ByID(ctx context.Context, id int64) (User, error)
	UpdateEmail(ctx context.Context, id int64, email string) (User, error)
}

type Products interface {
	ListActive(ctx context.Context) ([]catalog.Product, error)
	ListByCategory(ctx context.Context, category string) ([]catalog.Product, error)
	ListByBrand(ctx context.Context, brand string) ([]catalog.Product, error)
	ByID(ctx context.Context, id int64) (catalog.Product, error)
	Create(ctx context.Context, p catalog.Product) (catalog.Product, error)
	Update(ctx context.Context, id int64, p catalog.Product) (catalog.Product, error)
	Deactivate(ctx context.Context, id int64) (catalog.Product, error)
}

type Service struct {
	Users    Users
	Products Products
	Tokens   *JWTManager
	Events   Events
	Log      *slog.Logger
}

// Register creates the account and signs it in. The very first account is the
// store administrator.
func (s *Service) Register(ctx context.Context, username, email, password string) (AuthResponse, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return AuthResponse{}, reason(ErrInvalidInput, "Username and email are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return AuthResponse{}, reason(ErrInvalidInput, "Email must be valid")
	}

	if ok, err := s.Users.ExistsByUsername(ctx, username); err != nil {
		return AuthResponse{}, err
	} else if ok {
		return AuthResponse{}, reason(ErrExists, "Username already exists")
	}
	if ok, err := s.Users.ExistsByEmail(ctx, email); err != nil {
		return AuthResponse{}, err
	} else if ok {
		return AuthResponse{}, reason(ErrExists, "Email already exists")
	}
	if err := ValidatePassword(password); err != nil {
		return AuthResponse{}, err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return AuthResponse{}, fmt.Errorf("hash password: %w", err)
	}
	n, err := s.Users.Count(ctx)
	if err != nil {
		return AuthResponse{}, err
	}
	role := RoleCustomer
	if n == 0 {
		role = session.RoleAdmin
	}

	u, err := s.Users.Create(ctx, User{Username: username, Email: email, PasswordHash: hash, Roles: []string{role}})
	if errors.Is(err, ErrExists) {
		return AuthResponse{}, reason(ErrExists, "Username or email already exists")
	}
	if err != nil {
		return AuthResponse{}, err
	}
	s.logger().Info("user registered", "user_id", u.ID, "role", role)
	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, username, password string) (AuthResponse, error) {
	u, err := s.Users.ByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return AuthResponse{}, ErrInvalidCredentials
	}
	if err != nil {
		return AuthResponse{}, err
	}
	if !CheckPassword(u.PasswordHash, password) {
		return AuthResponse{}, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *Service) issue(u User) (AuthResponse, error) {
	tok, _, err := s.Tokens.Sign(u)
	if err != nil {
		return AuthResponse{}, fmt.Errorf("sign token: %w", err)
	}
	return AuthResponse{Token: tok, User: u.Principal()}, nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (session.Principal, error) {
	u, err := s.Users.ByID(ctx, userID)
	if err != nil {
		return session.Principal{}, err
	}
	return u.Principal(), nil
}

// UpdateProfile applies a partial update; only the email is editable.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, email string) (session.Principal, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return s.Profile(ctx, userID)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return session.Principal{}, reason(ErrInvalidInput, "Enter a valid email")
	}
	u, err := s.Users.UpdateEmail(ctx, userID, email)
	if errors.Is(err, ErrExists) {
		return session.Principal{}, reason(ErrExists, "Email already exists")
	}
	if err != nil {
		return session.Principal{}, err
	}
	return u.Principal(), nil
}

func (s *Service) ListProducts(ctx context.Context) ([]catalog.Product, error) {
	return s.Products.ListActive(ctx)
}

func (s *Service) ProductsByCategory(ctx context.Context, category string) ([]catalog.Product, error) {
	return s.Products.ListByCategory(ctx, category)
}

func (s *Service) ProductsByBrand(ctx context.Context, brand string) ([]catalog.Product, error) {
	return s.Products.ListByBrand(ctx, brand)
}

func (s *Service) Product(ctx context.Context, id int64) (catalog.Product, error) {
	return s.Products.ByID(ctx, id)
}

func (s *Service) CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if err := catalog.Validate(p); err != nil {
		return catalog.Product{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	out, err := s.Products.Create(ctx, p)
	if err != nil {
		return catalog.Product{}, err
	}
	s.changed(ctx, ActionCreated, out)
	return out, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, p catalog.Product) (catalog.Product, error) {
	if err := catalog.Validate(p); err != nil {
		return catalog.Product{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	out, err := s.Products.Update(ctx, id, p)
	if err != nil {
		return catalog.Product{}, err
	}
	s.changed(ctx, ActionUpdated, out)
	return out, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	out, err := s.Products.Deactivate(ctx, id)
	if err != nil {
		return err
	}
	s.changed(ctx, ActionDeleted, out)
	return nil
}

func (s *Service) changed(ctx context.Context, action string, p catalog.Product) {
	s.logger().Info("product changed", "product_id", p.ID, "action", action)
	if s.Events != nil {
		s.Events.ProductChanged(ctx, action, p)
	}
}

func (s *Service) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
