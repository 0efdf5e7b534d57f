package card

import "testing"

func TestIdentityCardNumberRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		identity Identity
		want     string
	}{
		{identity: Sequential("os-14"), want: "OS-14"},
		{identity: TeamSet("ha"), want: "TEAMSET-HA"},
		{identity: Hashed("a1b2c3d4e5", "award"), want: "SP-A1B2C3D4E5"},
	}

	for _, tc := range cases {
		got := tc.identity.CardNumber()
		if got != tc.want {
			t.Fatalf("card number: got %q want %q", got, tc.want)
		}
		parsed := ParseCardNumber(got)
		if parsed.Kind != tc.identity.Kind {
			t.Fatalf("parse %q: got kind %s want %s", got, parsed.Kind, tc.identity.Kind)
		}
		if parsed.CardNumber() != got {
			t.Fatalf("parse %q rendered %q", got, parsed.CardNumber())
		}
	}
}

func TestIdentityValidate(t *testing.T) {
	t.Parallel()

	if err := Sequential("").Validate(); err == nil {
		t.Fatalf("expected empty number to fail")
	}
	if err := TeamSet("ABCDEFGHIJKLMNOP").Validate(); err == nil {
		t.Fatalf("expected oversized team set number to fail")
	}
	if err := (Identity{Kind: "other", Number: "1"}).Validate(); err == nil {
		t.Fatalf("expected unknown kind to fail")
	}
	if err := Sequential("123").Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSequentialRejectsReservedPrefixes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		number   string
		reserved bool
	}{
		{number: "SP-12", reserved: true},
		{number: "sp-12", reserved: true},
		{number: "TEAMSET-HA", reserved: true},
		{number: "SP12", reserved: false},
		{number: "OS-14", reserved: false},
		{number: "SPX-3", reserved: false},
	}

	for _, tt := range tests {
		if got := ReservedNumber(tt.number); got != tt.reserved {
			t.Fatalf("reserved %q: got %v want %v", tt.number, got, tt.reserved)
		}
		err := Sequential(tt.number).Validate()
		if tt.reserved && err == nil {
			t.Fatalf("expected %q to be rejected as sequential", tt.number)
		}
		if !tt.reserved && err != nil {
			t.Fatalf("unexpected error for %q: %v", tt.number, err)
		}
	}
}

func TestDraftValidate(t *testing.T) {
	t.Parallel()

	negative := -1
	valid := Draft{SetID: 1, Identity: Sequential("1"), PlayerID: 2, Title: "x"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	broken := valid
	broken.TotalPrint = &negative
	if err := broken.Validate(); err == nil {
		t.Fatalf("expected negative print run to fail")
	}

	broken = valid
	broken.PlayerID = 0
	if err := broken.Validate(); err == nil {
		t.Fatalf("expected missing player to fail")
	}
}
