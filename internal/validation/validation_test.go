package validation

import "testing"

func TestValidateDate(t *testing.T) {
	valid := []string{"2026-01-01", "2026-02-28", "2026-12-31"}
	for _, d := range valid {
		if err := ValidateDate(d); err != nil {
			t.Errorf("ValidateDate(%q) = %v, want nil", d, err)
		}
	}

	invalid := []string{"", "2026-13-01", "2026-02-30", "01-02-2026", "2026/01/01", "tomorrow"}
	for _, d := range invalid {
		if err := ValidateDate(d); err == nil {
			t.Errorf("ValidateDate(%q) = nil, want error", d)
		}
	}
}

func TestValidateTime(t *testing.T) {
	valid := []string{"00:00", "09:30", "19:00", "23:59"}
	for _, v := range valid {
		if err := ValidateTime(v); err != nil {
			t.Errorf("ValidateTime(%q) = %v, want nil", v, err)
		}
	}

	invalid := []string{"", "24:00", "19:60", "7pm", "19", "19:0"}
	for _, v := range invalid {
		if err := ValidateTime(v); err == nil {
			t.Errorf("ValidateTime(%q) = nil, want error", v)
		}
	}
}

func TestValidatePartySize(t *testing.T) {
	if err := ValidatePartySize(2); err != nil {
		t.Errorf("ValidatePartySize(2) = %v, want nil", err)
	}
	if err := ValidatePartySize(MaxPartySize); err != nil {
		t.Errorf("ValidatePartySize(%d) = %v, want nil", MaxPartySize, err)
	}
	if err := ValidatePartySize(0); err == nil {
		t.Error("ValidatePartySize(0) = nil, want error")
	}
	if err := ValidatePartySize(-3); err == nil {
		t.Error("ValidatePartySize(-3) = nil, want error")
	}
	if err := ValidatePartySize(MaxPartySize + 1); err == nil {
		t.Errorf("ValidatePartySize(%d) = nil, want error", MaxPartySize+1)
	}
}

func TestValidateDateRange(t *testing.T) {
	if err := ValidateDateRange("2026-03-01", "2026-03-15"); err != nil {
		t.Errorf("valid range returned %v", err)
	}
	if err := ValidateDateRange("2026-03-01", "2026-03-01"); err != nil {
		t.Errorf("same-day range returned %v", err)
	}
	if err := ValidateDateRange("2026-03-15", "2026-03-01"); err == nil {
		t.Error("inverted range returned nil, want error")
	}
	if err := ValidateDateRange("bad", "2026-03-01"); err == nil {
		t.Error("bad begin date returned nil, want error")
	}
}
