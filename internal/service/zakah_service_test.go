package service

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeNisabRatios(t *testing.T) {
	// Round numbers make the expectations easy to derive by hand:
	// gold $3110.35/oz -> $100/g -> 85g = $8500 -> x1500 NGN.
	gold := decimal.RequireFromString("3110.35")
	silver := decimal.RequireFromString("31.1035")
	rate := decimal.NewFromInt(1500)

	goldNGN, silverNGN := ComputeNisab(gold, silver, rate)

	if want := decimal.NewFromInt(12750000); !goldNGN.Equal(want) {
		t.Errorf("gold nisab = %s, want %s", goldNGN, want)
	}
	// silver $1/g -> 595g = $595 -> x1500 NGN.
	if want := decimal.NewFromInt(892500); !silverNGN.Equal(want) {
		t.Errorf("silver nisab = %s, want %s", silverNGN, want)
	}
}

func TestDeriveReferences(t *testing.T) {
	refs := DeriveReferences(decimal.NewFromInt(12750000))
	if len(refs) != 3 {
		t.Fatalf("references = %d, want 3", len(refs))
	}

	byKey := map[string]string{}
	for _, r := range refs {
		byKey[r.Key] = r.AmountNGN.String()
	}
	// Dowry and theft nisab are a quarter dinar (1.25% of the gold nisab),
	// blood money 50 times the nisab.
	if got := byKey["minimum_dowry"]; got != "159375" {
		t.Errorf("minimum_dowry = %s, want 159375", got)
	}
	if got := byKey["blood_money"]; got != "637500000" {
		t.Errorf("blood_money = %s, want 637500000", got)
	}
	if got := byKey["theft_nisab"]; got != "159375" {
		t.Errorf("theft_nisab = %s, want 159375", got)
	}
}
