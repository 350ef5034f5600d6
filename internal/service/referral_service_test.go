package service

import (
	"errors"
	"testing"

	"github.com/synergy-flow/internal/constants"
)

func TestLinkReferrerRules(t *testing.T) {
	env := newAffiliateTestEnv(t)
	root := env.createUser(t, "root", constants.TierStarter, 0)
	child := env.createUser(t, "child", constants.TierStarter, 0)
	grandchild := env.createUser(t, "grand", constants.TierStarter, 0)

	if _, err := env.referrals.LinkReferrer(child.ID, child.ReferralCode); !errors.Is(err, ErrReferralSelf) {
		t.Fatalf("expected ErrReferralSelf, got %v", err)
	}
	if _, err := env.referrals.LinkReferrer(child.ID, "NOPE0000"); !errors.Is(err, ErrInvalidReferralCode) {
		t.Fatalf("expected ErrInvalidReferralCode, got %v", err)
	}

	upline, err := env.referrals.LinkReferrer(child.ID, " "+root.ReferralCode+" ")
	if err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if upline.ID != root.ID {
		t.Fatalf("expected upline %d, got %d", root.ID, upline.ID)
	}
	if got := env.reload(t, child.ID).UplineReferrerCode; got != root.ReferralCode {
		t.Fatalf("upline code not stored, got %q", got)
	}
	if _, err := env.referrals.LinkReferrer(child.ID, grandchild.ReferralCode); !errors.Is(err, ErrReferralAlreadyBound) {
		t.Fatalf("expected ErrReferralAlreadyBound, got %v", err)
	}

	env.link(t, grandchild, child)
	// root → child → grandchild，root 再挂到 grandchild 会成环
	if _, err := env.referrals.LinkReferrer(root.ID, grandchild.ReferralCode); !errors.Is(err, ErrReferralCycle) {
		t.Fatalf("expected ErrReferralCycle, got %v", err)
	}
	if env.reload(t, root.ID).HasReferrer() {
		t.Fatalf("root must stay unlinked after a rejected cycle")
	}
}

func TestLinkReferrerRejectsDisabledUpline(t *testing.T) {
	env := newAffiliateTestEnv(t)
	upline := env.createUser(t, "quebec", constants.TierStarter, 0)
	member := env.createUser(t, "romeo", constants.TierStarter, 0)
	env.db.Model(upline).Update("status", constants.UserStatusDisabled)

	if _, err := env.referrals.LinkReferrer(member.ID, upline.ReferralCode); !errors.Is(err, ErrInvalidReferralCode) {
		t.Fatalf("expected ErrInvalidReferralCode, got %v", err)
	}
}

func TestResolveChainAndRelationship(t *testing.T) {
	env := newAffiliateTestEnv(t)
	buyer, c, b, a := setupThreeLevelChain(t, env)

	chain, err := env.referrals.ResolveChain(buyer.ID)
	if err != nil {
		t.Fatalf("resolve chain failed: %v", err)
	}
	if len(chain) != 3 || chain[0].ID != c.ID || chain[1].ID != b.ID || chain[2].ID != a.ID {
		t.Fatalf("unexpected chain order: %+v", chain)
	}

	cases := []struct {
		upline, member uint
		want           string
	}{
		{c.ID, buyer.ID, constants.RelationshipDirect},
		{a.ID, buyer.ID, constants.RelationshipIndirect},
		{buyer.ID, a.ID, ""},
		{a.ID, a.ID, ""},
	}
	for _, tc := range cases {
		got, err := env.referrals.Relationship(tc.upline, tc.member)
		if err != nil {
			t.Fatalf("relationship failed: %v", err)
		}
		if got != tc.want {
			t.Fatalf("relationship(%d,%d): want %q got %q", tc.upline, tc.member, tc.want, got)
		}
	}

	direct, total, err := env.referrals.TeamSize(a.ID)
	if err != nil {
		t.Fatalf("team size failed: %v", err)
	}
	if direct != 1 || total != 3 {
		t.Fatalf("team size: want 1/3 got %d/%d", direct, total)
	}
}
