package services

import (
	"errors"
	"fmt"

	"fashionhub/internal/repositories"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductModified    = errors.New("product was modified concurrently")
	ErrOrderNotFound      = errors.New("order not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrCartEmpty          = errors.New("cart is empty")
	ErrForbidden          = errors.New("access denied")
	ErrNotCancellable     = errors.New("order cannot be cancelled at this stage")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// StockConflictError lists every cart line that could not be fulfilled at
// checkout.
type StockConflictError struct {
	Issues []string
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("%d cart lines are no longer available", len(e.Issues))
}

// notFound replaces a repository miss with the given domain error and wraps
// anything else.
func notFound(err, domainErr error, op string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return domainErr
	}
	return fmt.Errorf("%s: %w", op, err)
}
