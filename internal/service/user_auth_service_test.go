package service

import (
	"context"
	"errors"
	"testing"

	"github.com/synergy-flow/internal/config"
	"github.com/synergy-flow/internal/constants"
)

func newAuthTestService(env *affiliateTestEnv) *UserAuthService {
	cfg := &config.Config{
		JWT: config.JWTConfig{SecretKey: "test-secret", ExpireHours: 2},
		Security: config.SecurityConfig{
			PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8, RequireNumber: true},
		},
	}
	return NewUserAuthService(cfg, env.users, env.referrals)
}

func TestRegisterWithReferralCode(t *testing.T) {
	env := newAffiliateTestEnv(t)
	svc := newAuthTestService(env)
	upline := env.createUser(t, "victor", constants.TierStarter, 0)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:        "  New.Member@Example.COM ",
		Password:     "secret123",
		ReferralCode: upline.ReferralCode,
		Locale:       "th-TH",
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	user := result.User
	if user.Email != "new.member@example.com" {
		t.Fatalf("email should be normalized, got %q", user.Email)
	}
	if user.DisplayName != "new.member" || user.Locale != "th" {
		t.Fatalf("unexpected defaults: name=%q locale=%q", user.DisplayName, user.Locale)
	}
	if len(user.ReferralCode) != 8 || user.UplineReferrerCode != upline.ReferralCode {
		t.Fatalf("unexpected codes: own=%q upline=%q", user.ReferralCode, user.UplineReferrerCode)
	}
	if user.Tier != constants.TierStarter || !user.AccumulatedSales.Decimal.IsZero() {
		t.Fatalf("new member should start at starter with zero sales")
	}

	claims, err := svc.ParseUserJWT(result.Token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != constants.UserRoleMember {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "new.member@example.com", Password: "secret123"}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
}

func TestRegisterRollsBackOnInvalidReferralCode(t *testing.T) {
	env := newAffiliateTestEnv(t)
	svc := newAuthTestService(env)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:        "whiskey@example.com",
		Password:     "secret123",
		ReferralCode: "ZZZZZZZZ",
	})
	if !errors.Is(err, ErrInvalidReferralCode) {
		t.Fatalf("expected ErrInvalidReferralCode, got %v", err)
	}
	if user, _ := env.users.GetByEmail("whiskey@example.com"); user != nil {
		t.Fatalf("user must not be created when referral link fails")
	}
}

func TestRegisterValidatesInput(t *testing.T) {
	env := newAffiliateTestEnv(t)
	svc := newAuthTestService(env)

	if _, err := svc.Register(context.Background(), RegisterInput{Email: "not-an-email", Password: "secret123"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	_, err := svc.Register(context.Background(), RegisterInput{Email: "xray@example.com", Password: "short"})
	if !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if KindOf(err) != KindInvalidInput {
		t.Fatalf("weak password should map to invalid_input, got %s", KindOf(err))
	}
	if _, err := svc.Register(context.Background(), RegisterInput{Email: "xray@example.com", Password: "onlyletters"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("password without digits should fail, got %v", err)
	}
}

func TestLoginAndChangePasswordRevokesTokens(t *testing.T) {
	env := newAffiliateTestEnv(t)
	svc := newAuthTestService(env)
	registered, err := svc.Register(context.Background(), RegisterInput{Email: "yankee@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.Login(context.Background(), "yankee@example.com", "wrong-pass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email should look like bad credentials, got %v", err)
	}
	login, err := svc.Login(context.Background(), "YANKEE@example.com", "secret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	before, _ := svc.ParseUserJWT(login.Token)

	if err := svc.ChangePassword(context.Background(), registered.User.ID, "secret123", "newsecret456"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	state, err := svc.ResolveAuthState(context.Background(), registered.User.ID)
	if err != nil {
		t.Fatalf("resolve auth state failed: %v", err)
	}
	if state.TokenVersion <= before.TokenVersion {
		t.Fatalf("token version should increase: before=%d after=%d", before.TokenVersion, state.TokenVersion)
	}

	env.db.Model(registered.User).Update("status", constants.UserStatusDisabled)
	if _, err := svc.Login(context.Background(), "yankee@example.com", "newsecret456"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("expected ErrUserDisabled, got %v", err)
	}
}

func TestParseUserJWTRejectsForeignSignature(t *testing.T) {
	env := newAffiliateTestEnv(t)
	svc := newAuthTestService(env)
	user := env.createUser(t, "zulu", constants.TierStarter, 0)
	token, _, err := svc.GenerateUserJWT(user)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	other := NewUserAuthService(&config.Config{JWT: config.JWTConfig{SecretKey: "another-secret"}}, env.users, env.referrals)
	if _, err := other.ParseUserJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
