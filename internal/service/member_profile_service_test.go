package service

import (
	"errors"
	"testing"

	"github.com/synergy-flow/internal/constants"
)

func TestAddressDefaultHandling(t *testing.T) {
	env := newAffiliateTestEnv(t)
	user := env.createUser(t, "amber", constants.TierStarter, 0)

	first := env.createAddress(t, user.ID)
	if !first.IsDefault {
		t.Fatalf("first address should become default")
	}
	second, err := env.profile.CreateAddress(user.ID, AddressInput{
		RecipientName: "Office",
		Phone:         "021234567",
		Line1:         "1 Silom Rd",
		Province:      "Bangkok",
		PostalCode:    "10500",
		IsDefault:     true,
	})
	if err != nil {
		t.Fatalf("create second address failed: %v", err)
	}

	rows, err := env.profile.ListAddresses(user.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	defaults := 0
	for _, row := range rows {
		if row.IsDefault {
			defaults++
			if row.ID != second.ID {
				t.Fatalf("new default should replace the old one")
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("expected exactly one default address, got %d", defaults)
	}

	other := env.createUser(t, "beryl", constants.TierStarter, 0)
	if err := env.profile.DeleteAddress(other.ID, first.ID); !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("deleting someone else's address should fail, got %v", err)
	}
	if err := env.profile.DeleteAddress(user.ID, first.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
}

func TestAddressValidation(t *testing.T) {
	env := newAffiliateTestEnv(t)
	user := env.createUser(t, "coral", constants.TierStarter, 0)

	_, err := env.profile.CreateAddress(user.ID, AddressInput{
		RecipientName: "  ",
		Phone:         "0812345678",
		Line1:         "99 Road",
		Province:      "Bangkok",
		PostalCode:    "10110",
	})
	if !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("blank recipient should fail, got %v", err)
	}
	_, err = env.profile.CreateAddress(user.ID, AddressInput{
		RecipientName: "Coral",
		Phone:         "0812345678",
		Line1:         "99 Road",
		Province:      "Bangkok",
		PostalCode:    "ABCDE",
	})
	if !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("non-numeric postal code should fail, got %v", err)
	}
}

func TestBankAccountValidationAndMasking(t *testing.T) {
	env := newAffiliateTestEnv(t)
	user := env.createUser(t, "denim", constants.TierStarter, 0)

	cases := []struct {
		number string
		ok     bool
	}{
		{"123-4-56789-0", true},
		{"1234 5678 9012 345", true},
		{"123456789", false},
		{"1234567890123456", false},
		{"12345abcde", false},
	}
	for _, tc := range cases {
		_, err := env.profile.CreateBankAccount(user.ID, BankAccountInput{
			BankName:      "SCB",
			AccountName:   "Denim",
			AccountNumber: tc.number,
		})
		if tc.ok && err != nil {
			t.Fatalf("%q should be accepted: %v", tc.number, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidBankAccount) {
			t.Fatalf("%q should be rejected, got %v", tc.number, err)
		}
	}

	rows, err := env.profile.ListBankAccounts(user.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(rows))
	}
	for _, row := range rows {
		if row.AccountNumber != "******7890" && row.AccountNumber != "***********2345" {
			t.Fatalf("account number should be masked, got %q", row.AccountNumber)
		}
	}
}

func TestMaskAccountNumber(t *testing.T) {
	if got := MaskAccountNumber("1234"); got != "1234" {
		t.Fatalf("short numbers stay as-is, got %q", got)
	}
	if got := MaskAccountNumber("1234567890"); got != "******7890" {
		t.Fatalf("unexpected mask %q", got)
	}
}
