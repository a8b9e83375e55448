package domain

import (
	"slices"
	"testing"
)

func sampleAccounts() []Account {
	return []Account{
		{Address: "1A", Label: "cold", Tags: []string{"hodl"}},
		{Label: "ledger", Xpub: &XpubPayload{Xpub: "xpub1", DerivationPath: "m/0", Addresses: []string{"1X", "1Y"}}},
		{Address: "1B"},
		{Label: "empty xpub", Xpub: &XpubPayload{Xpub: "xpub2"}},
	}
}

func TestStandaloneAndXpubAccounts(t *testing.T) {
	accounts := sampleAccounts()

	standalone := StandaloneAccounts(accounts)
	if len(standalone) != 2 {
		t.Fatalf("StandaloneAccounts() = %d, want 2", len(standalone))
	}
	if standalone[0].Address != "1A" || standalone[1].Address != "1B" {
		t.Errorf("StandaloneAccounts() order = %q, %q", standalone[0].Address, standalone[1].Address)
	}

	xpubs := XpubAccounts(accounts)
	if len(xpubs) != 2 {
		t.Fatalf("XpubAccounts() = %d, want 2", len(xpubs))
	}
	for _, a := range xpubs {
		if !a.IsXpub() {
			t.Errorf("XpubAccounts() includes non-xpub %q", a.Address)
		}
	}
}

func TestTrackedAddresses(t *testing.T) {
	accounts := append(sampleAccounts(), Account{Address: "1X"})

	got := TrackedAddresses(accounts)
	want := []string{"1A", "1X", "1Y", "1B"}
	if !slices.Equal(got, want) {
		t.Errorf("TrackedAddresses() = %v, want %v", got, want)
	}
}

func TestAccountKey(t *testing.T) {
	accounts := sampleAccounts()
	if got := accounts[0].Key(); got != "1A" {
		t.Errorf("Key() = %q, want 1A", got)
	}
	if got := accounts[1].Key(); got != "xpub1" {
		t.Errorf("Key() = %q, want xpub1", got)
	}
}

func TestAccountValidate(t *testing.T) {
	tests := []struct {
		name    string
		account Account
		wantErr bool
	}{
		{"address", Account{Address: "a1"}, false},
		{"xpub", Account{Xpub: &XpubPayload{Xpub: "xpub1"}}, false},
		{"label only", Account{Label: "cold"}, true},
		{"empty xpub", Account{Xpub: &XpubPayload{DerivationPath: "m/0"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccountByKey(t *testing.T) {
	accounts := sampleAccounts()

	a, found := AccountByKey(accounts, "xpub1")
	if !found {
		t.Fatal("AccountByKey() did not find xpub1")
	}
	if a.Label != "ledger" {
		t.Errorf("AccountByKey() label = %q, want ledger", a.Label)
	}

	if _, found := AccountByKey(accounts, "1Z"); found {
		t.Error("AccountByKey() found non-existent key")
	}
}

func TestAccountCloneIsolation(t *testing.T) {
	orig := sampleAccounts()[1]
	c := orig.Clone()
	c.Xpub.Addresses[0] = "HACKED"
	c.Xpub.Xpub = "other"

	if orig.Xpub.Addresses[0] != "1X" {
		t.Error("Clone() shares xpub addresses with the original")
	}
	if orig.Xpub.Xpub != "xpub1" {
		t.Error("Clone() shares xpub payload with the original")
	}
}
