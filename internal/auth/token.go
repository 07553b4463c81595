package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/skillsenselab/storestream/internal/broadcast"
)

// Identity is the room scope extracted from a verified token.
type Identity struct {
	ShopID   string
	BranchID string
	Subject  string
}

// RoomKey derives the room key this identity is scoped to.
func (id Identity) RoomKey() string {
	return broadcast.BuildRoomKey(id.ShopID, id.BranchID)
}

// Claims is the JWT claims structure carried by storestream tokens.
type Claims struct {
	gojwt.RegisteredClaims
	ShopID   string `json:"shop_id"`
	BranchID string `json:"branch_id"`
}

// Service verifies bearer tokens and mints them for the load driver and
// tests.
type Service struct {
	cfg Config
}

// NewService creates a token service from config.
func NewService(cfg Config) (*Service, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	return &Service{cfg: cfg}, nil
}

// Parse verifies a token string and returns the identity it carries.
// Signature, expiry, and (when configured) issuer are checked; the
// shop/branch identifiers are validated against the room key contract.
func (s *Service) Parse(tokenString string) (Identity, error) {
	claims := &Claims{}
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.cfg.Issuer))
	}

	token, err := gojwt.ParseWithClaims(tokenString, claims, s.keyFunc, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("auth: parse token: %w", err)
	}
	if !token.Valid {
		return Identity{}, errors.New("auth: invalid token")
	}

	identity := Identity{
		ShopID:   claims.ShopID,
		BranchID: claims.BranchID,
		Subject:  claims.Subject,
	}
	if err := validateIdentity(identity); err != nil {
		return Identity{}, err
	}
	return identity, nil
}

// Mint creates a signed token for the given identity.
func (s *Service) Mint(identity Identity) (string, error) {
	if err := validateIdentity(identity); err != nil {
		return "", err
	}

	now := time.Now()
	claims := &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   identity.Subject,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
		ShopID:   identity.ShopID,
		BranchID: identity.BranchID,
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// keyFunc is the jwt.Keyfunc used during token parsing.
func (s *Service) keyFunc(token *gojwt.Token) (interface{}, error) {
	if token.Method.Alg() != gojwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("auth: unexpected signing method: %s", token.Method.Alg())
	}
	return []byte(s.cfg.Secret), nil
}

// validateIdentity enforces the room key contract: both identifiers
// present and neither containing the separator, so distinct shop/branch
// pairs can never produce colliding room keys.
func validateIdentity(identity Identity) error {
	if identity.ShopID == "" {
		return errors.New("auth: token missing shop_id claim")
	}
	if identity.BranchID == "" {
		return errors.New("auth: token missing branch_id claim")
	}
	if strings.Contains(identity.ShopID, broadcast.RoomKeySeparator) {
		return fmt.Errorf("auth: shop_id must not contain %q", broadcast.RoomKeySeparator)
	}
	if strings.Contains(identity.BranchID, broadcast.RoomKeySeparator) {
		return fmt.Errorf("auth: branch_id must not contain %q", broadcast.RoomKeySeparator)
	}
	return nil
}
