package splits

import (
	"math"
	"testing"
)

func TestResolveField(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"first wins", []string{"a", "b"}, "a"},
		{"skips blanks", []string{"", "  ", "c"}, "c"},
		{"trims", []string{"  d  "}, "d"},
		{"placeholder", []string{"", " "}, Placeholder},
		{"no candidates", nil, Placeholder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveField(tt.candidates...); got != tt.want {
				t.Errorf("ResolveField() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReconcileFallsBackOnMalformedSnapshot(t *testing.T) {
	rows := []Row{
		{Name: "Nova", Role: "primary", Percentage: 60, Email: "nova@example.com"},
		{Name: "Kilo", Role: "producer", Percentage: 40},
	}

	for _, snapshot := range [][]byte{
		[]byte("not json"),
		[]byte(`"not json"`),
		[]byte(`{"name":"x"}`),
		[]byte(`[]`),
		[]byte(`[1, 2]`),
		nil,
	} {
		ledger := Reconcile(snapshot, rows)
		if ledger.Source != SourceSplits {
			t.Fatalf("snapshot %q: expected splits source, got %s", snapshot, ledger.Source)
		}
		if len(ledger.Contributors) != 2 {
			t.Fatalf("snapshot %q: expected 2 contributors, got %d", snapshot, len(ledger.Contributors))
		}
	}
}

func TestReconcilePrefersSnapshot(t *testing.T) {
	snapshot := []byte(`[
		{"name":"Nova","role":"primary","percentage":"70","legalName":"Nova Lindqvist","userId":"u1"},
		{"name":"Guest","role":"featured","percentage":30,"phoneNumber":"+46 70 000"}
	]`)
	rows := []Row{
		{Name: "Nova", Percentage: 50, UserID: "u1", User: &Party{Phone: "+46 11 111", Address: "Storgatan 1", Email: "nova@users.test"}},
	}

	ledger := Reconcile(snapshot, rows)
	if ledger.Source != SourceSnapshot {
		t.Fatalf("expected snapshot source, got %s", ledger.Source)
	}
	nova := ledger.Contributors[0]
	if nova.PercentageOfArtistShare != 70 {
		t.Errorf("expected string percentage to parse, got %v", nova.PercentageOfArtistShare)
	}
	if nova.LegalName != "Nova Lindqvist" {
		t.Errorf("expected legal name from snapshot, got %q", nova.LegalName)
	}
	if nova.Phone != "+46 11 111" || nova.Address != "Storgatan 1" || nova.Email != "nova@users.test" {
		t.Errorf("expected contact fields from linked user, got %+v", nova)
	}
	guest := ledger.Contributors[1]
	if guest.Phone != "+46 70 000" {
		t.Errorf("expected guest phone from snapshot, got %q", guest.Phone)
	}
	if guest.Email != Placeholder || guest.Address != Placeholder || guest.LegalName != Placeholder {
		t.Errorf("expected placeholders for unknown guest fields, got %+v", guest)
	}
	if !ledger.Balanced {
		t.Errorf("expected ledger to balance, total %v", ledger.Total)
	}
}

func TestFieldsResolveIndependently(t *testing.T) {
	rows := []Row{{
		Name:        "Duo",
		Percentage:  100,
		User:        &Party{LegalName: "Direct Legal"},
		ArtistOwner: &Party{LegalName: "Owner Legal", Phone: "555-OWNER", Email: "owner@example.com"},
	}}

	c := Reconcile(nil, rows).Contributors[0]
	if c.LegalName != "Direct Legal" {
		t.Errorf("legal name should come from linked user, got %q", c.LegalName)
	}
	if c.Phone != "555-OWNER" {
		t.Errorf("phone should fall through to artist owner, got %q", c.Phone)
	}
	if c.Email != "owner@example.com" {
		t.Errorf("email should fall through to artist owner, got %q", c.Email)
	}
	if c.Address != Placeholder {
		t.Errorf("address should be placeholder, got %q", c.Address)
	}
}

func TestPrimaryDefaultsToFirst(t *testing.T) {
	ledger := Reconcile(nil, []Row{
		{Name: "A", Role: "writer", Percentage: 50},
		{Name: "B", Role: "producer", Percentage: 50},
	})
	p, ok := ledger.Primary()
	if !ok || p.Name != "A" {
		t.Fatalf("expected A as display primary, got %+v", p)
	}
	if p.Role != RoleWriter {
		t.Errorf("stored role must not change, got %s", p.Role)
	}

	ledger = Reconcile(nil, []Row{
		{Name: "A", Role: "writer", Percentage: 50},
		{Name: "B", Role: "PRIMARY", Percentage: 50},
	})
	p, _ = ledger.Primary()
	if p.Name != "B" {
		t.Errorf("expected B as primary, got %s", p.Name)
	}
}

func TestSharesNeverExceedArtistShare(t *testing.T) {
	artistShare := 0.65
	cases := [][]Row{
		{{Name: "a", Percentage: 80}, {Name: "b", Percentage: 70}},
		{{Name: "a", Percentage: 100}},
		{{Name: "a", Percentage: 33.3}, {Name: "b", Percentage: 33.3}, {Name: "c", Percentage: 33.3}},
		{{Name: "a", Percentage: -20}, {Name: "b", Percentage: 250}},
		{{Name: "a", Percentage: math.NaN()}},
	}

	for i, rows := range cases {
		ledger := Reconcile(nil, rows)
		var gross float64
		for _, c := range ledger.Contributors {
			gross += c.GrossPercentage(artistShare)
		}
		if gross > artistShare*100+1e-6 {
			t.Errorf("case %d: contributors claim %v%%, artist share is %v%%", i, gross, artistShare*100)
		}
	}

	ledger := Reconcile(nil, cases[0])
	if !ledger.Scaled || ledger.Balanced || ledger.Total != 150 {
		t.Errorf("expected overfull ledger to be flagged and scaled, got %+v", ledger)
	}
}

func TestParseRole(t *testing.T) {
	if ParseRole(" Producer ") != RoleProducer {
		t.Error("expected producer")
	}
	if ParseRole("") != RoleFeatured || ParseRole("dj") != RoleFeatured {
		t.Error("unknown roles should read as featured")
	}
}
