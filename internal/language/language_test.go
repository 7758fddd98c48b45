package language

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"ja", "ja"},
		{"JA", "ja"},
		{" en ", "en"},
		{"en-US", "en"},
		{"zh-Hant", "zh"},
		{"pt-BR", "pt"},
		{"Japanese", "ja"},
		{"german", "de"},
		{"", ""},
		{"xx-invalid-!!", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.input); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestIsSupported(t *testing.T) {
	for _, value := range []string{"ja", "en-US", "Korean", "zh"} {
		if !IsSupported(value) {
			t.Errorf("IsSupported(%q) = false, want true", value)
		}
	}
	for _, value := range []string{"", "tlh", "!!"} {
		if IsSupported(value) {
			t.Errorf("IsSupported(%q) = true, want false", value)
		}
	}
}

func TestSupportedIsCopy(t *testing.T) {
	first := Supported()
	first[0] = "mutated"
	second := Supported()
	if second[0] == "mutated" {
		t.Fatal("Supported returned shared backing array")
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{"ja", "Japanese"},
		{"en", "English"},
		{"", "Unknown"},
	}
	for _, tc := range cases {
		if got := DisplayName(tc.code); got != tc.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}
