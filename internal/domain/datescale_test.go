package domain

import "testing"

func TestDailyDateScale_Inclusive(t *testing.T) {
	scale, err := DailyDateScale("2026-01-30", "2026-02-02")
	if err != nil {
		t.Fatalf("DailyDateScale() error: %v", err)
	}
	want := []string{"2026-01-30", "2026-01-31", "2026-02-01", "2026-02-02"}
	if len(scale) != len(want) {
		t.Fatalf("scale = %v", scale)
	}
	for i := range want {
		if scale[i] != want[i] {
			t.Errorf("scale[%d] = %q, want %q", i, scale[i], want[i])
		}
	}
}

func TestDailyDateScale_SingleDay(t *testing.T) {
	scale, err := DailyDateScale("2026-03-15", "2026-03-15")
	if err != nil {
		t.Fatalf("DailyDateScale() error: %v", err)
	}
	if len(scale) != 1 || scale[0] != "2026-03-15" {
		t.Errorf("scale = %v, want one entry", scale)
	}
}

func TestDailyDateScale_LeapDay(t *testing.T) {
	scale, err := DailyDateScale("2028-02-28", "2028-03-01")
	if err != nil {
		t.Fatalf("DailyDateScale() error: %v", err)
	}
	if len(scale) != 3 || scale[1] != "2028-02-29" {
		t.Errorf("scale = %v, want the leap day in the middle", scale)
	}
}

func TestDailyDateScale_EndBeforeStart(t *testing.T) {
	if _, err := DailyDateScale("2026-01-07", "2026-01-01"); err == nil {
		t.Fatal("DailyDateScale() should reject a reversed window")
	}
}

func TestDailyDateScale_MalformedDates(t *testing.T) {
	for _, tc := range [][2]string{
		{"2026/01/01", "2026-01-02"},
		{"2026-01-01", "tomorrow"},
		{"", "2026-01-02"},
	} {
		if _, err := DailyDateScale(tc[0], tc[1]); err == nil {
			t.Errorf("DailyDateScale(%q, %q) should fail", tc[0], tc[1])
		}
	}
}
