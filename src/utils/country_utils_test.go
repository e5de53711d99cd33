package utils

import "testing"

func TestCountryCodeFromISIN(t *testing.T) {
	tests := []struct {
		name string
		isin string
		want string
	}{
		{"known US prefix", "US0378331005", "US"},
		{"known German prefix", "DE0007164600", "DE"},
		{"lowercase prefix", "us0378331005", "US"},
		{"unknown prefix kept raw", "XS2114413565", "XS"},
		{"too short", "U", "??"},
		{"empty", "", "??"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountryCodeFromISIN(tt.isin); got != tt.want {
				t.Errorf("CountryCodeFromISIN(%q) = %q, want %q", tt.isin, got, tt.want)
			}
		})
	}
}

func TestCountryDisplayString(t *testing.T) {
	if got := CountryDisplayString("US"); got != "840 - Stany Zjednoczone" {
		t.Errorf("display = %q, want %q", got, "840 - Stany Zjednoczone")
	}
	if got := CountryDisplayString("XS"); got != "Unknown Code: XS" {
		t.Errorf("display = %q, want %q", got, "Unknown Code: XS")
	}
}

func TestIsKnownCountry(t *testing.T) {
	if !IsKnownCountry("pl") {
		t.Error("PL must be known")
	}
	if IsKnownCountry("XS") {
		t.Error("XS must not be known")
	}
}
