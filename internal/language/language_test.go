package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"EN", "en"},
		{" english ", "en"},
		{"eng", "en"},
		{"deutsch", "de"},
		{"pt_br", "pt-BR"},
		{"pt-br", "pt-BR"},
		{"Portuguese-br", "pt-BR"},
		{"xx", "xx"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKnown(t *testing.T) {
	if !Known("French") || !Known("es-MX") {
		t.Fatal("expected French and es-MX to be known")
	}
	if Known("klingon") || Known("") {
		t.Fatal("expected unknown values to be rejected")
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"en":    "English",
		"pt-br": "Portuguese (BR)",
		"xx":    "XX",
		"":      "Unknown",
	}
	for in, want := range tests {
		if got := DisplayName(in); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", in, got, want)
		}
	}
}
