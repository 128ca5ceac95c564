package util

import (
	"testing"
	"time"
)

func TestInLocationFallback(t *testing.T) {
	def := time.FixedZone("CET", 3600)
	if got := InLocation("", def); got != def {
		t.Fatalf("expected default for empty name")
	}
	if got := InLocation("Not/AZone", def); got != def {
		t.Fatalf("expected default for unknown zone")
	}
	if got := InLocation("UTC", def); got.String() != "UTC" {
		t.Fatalf("expected UTC, got %s", got)
	}
	if got := InLocation("", nil); got != time.UTC {
		t.Fatalf("expected UTC when default is nil")
	}
}

func TestUnixIn(t *testing.T) {
	loc := time.FixedZone("X", 2*3600)
	got := UnixIn(0, loc)
	if got.Hour() != 2 || !got.Equal(time.Unix(0, 0)) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" EQNR, DNB,,NHY , EQNR ")
	want := []string{"EQNR", "DNB", "NHY", "EQNR"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if len(SplitList("")) != 0 {
		t.Fatalf("expected empty list")
	}
}

