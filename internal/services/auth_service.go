package services

import (
	"context"
	"database/sql"
	"errors"

	"stallhub/internal/repos"

	"golang.org/x/crypto/bcrypt"
)

var ErrBadToken = errors.New("invalid seller token")

// AuthService checks seller bearer tokens against the bcrypt hash stored on
// the vendor row.
type AuthService struct {
	Vendors *repos.VendorRepo
}

// Verify reports nil only when token belongs to vendorID.
func (s *AuthService) Verify(ctx context.Context, vendorID, token string) error {
	if vendorID == "" || token == "" {
		return ErrBadToken
	}
	v, err := s.Vendors.ByID(ctx, vendorID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBadToken
	}
	if err != nil {
		return err
	}
	if v.TokenHash == "" {
		return ErrBadToken
	}
	if bcrypt.CompareHashAndPassword([]byte(v.TokenHash), []byte(token)) != nil {
		return ErrBadToken
	}
	return nil
}

// HashToken produces the value stored in vendors.api_key_hash.
func HashToken(token string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	return string(h), err
}
