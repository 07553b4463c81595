package auth

import (
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

func testConfig() Config {
	return Config{
		Secret: "test-secret-0123456789abcdef",
		Issuer: "storestream-test",
	}
}

func TestService_MintParseRoundTrip(t *testing.T) {
	svc, err := NewService(testConfig())
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	identity := Identity{ShopID: "shop-1", BranchID: "branch-1", Subject: "user-7"}
	token, err := svc.Mint(identity)
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}

	parsed, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed != identity {
		t.Errorf("expected %+v, got %+v", identity, parsed)
	}
	if parsed.RoomKey() != "shop-1:branch-1" {
		t.Errorf("expected room key 'shop-1:branch-1', got %q", parsed.RoomKey())
	}
}

func TestService_ParseRejectsWrongSecret(t *testing.T) {
	svc, _ := NewService(testConfig())
	other, _ := NewService(Config{Secret: "another-secret-0123456789abcdef"})

	token, err := other.Mint(Identity{ShopID: "s1", BranchID: "b1"})
	if err != nil {
		t.Fatalf("Mint failed: %v", err)
	}
	if _, err := svc.Parse(token); err == nil {
		t.Error("expected signature verification to fail")
	}
}

func TestService_ParseRejectsExpired(t *testing.T) {
	cfg := testConfig()
	svc, _ := NewService(cfg)

	claims := &Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  gojwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		ShopID:   "s1",
		BranchID: "b1",
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).
		SignedString([]byte(cfg.Secret))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := svc.Parse(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestService_ParseRejectsMissingScope(t *testing.T) {
	cfg := testConfig()
	svc, _ := NewService(cfg)

	for name, claims := range map[string]*Claims{
		"missing shop":   {ShopID: "", BranchID: "b1"},
		"missing branch": {ShopID: "s1", BranchID: ""},
	} {
		claims.RegisteredClaims = gojwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).
			SignedString([]byte(cfg.Secret))
		if err != nil {
			t.Fatalf("%s: sign failed: %v", name, err)
		}
		if _, err := svc.Parse(token); err == nil {
			t.Errorf("%s: expected rejection", name)
		}
	}
}

func TestService_SeparatorContract(t *testing.T) {
	svc, _ := NewService(testConfig())

	// Identifiers containing the room key separator can produce
	// colliding keys and are rejected before any key is derived.
	if _, err := svc.Mint(Identity{ShopID: "shop:1", BranchID: "b1"}); err == nil {
		t.Error("expected separator in shop_id to be rejected")
	}
	if _, err := svc.Mint(Identity{ShopID: "s1", BranchID: "branch:1"}); err == nil {
		t.Error("expected separator in branch_id to be rejected")
	}
	if err, want := func() error {
		_, err := svc.Mint(Identity{ShopID: "s1", BranchID: "b:1"})
		return err
	}(), "must not contain"; err == nil || !strings.Contains(err.Error(), want) {
		t.Errorf("expected %q in error, got %v", want, err)
	}
}

func TestNewService_RequiresSecret(t *testing.T) {
	if _, err := NewService(Config{}); err == nil {
		t.Error("expected error for missing secret")
	}
	if _, err := NewService(Config{Secret: "short"}); err == nil {
		t.Error("expected error for short secret")
	}
}
