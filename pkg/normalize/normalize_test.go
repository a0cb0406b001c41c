package normalize

import "testing"

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Plugin Name 1.2.3", "1.2.3"},
		{"Plugin v2.5.0", "2.5.0"},
		{"Something 10.11.12", "10.11.12"},
		{"version 3.4", "3.4"},
		{"Ver 4.0.0", "4.0.0"},
		{"Tool 1.2.3.4", "1.2.3.4"},
		{"No Version Here", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := ExtractVersion(tt.text); got != tt.want {
			t.Errorf("ExtractVersion(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Plugin Name Pro 1.2.3", "name"},
		{"Something Premium | Download", "something"},
		{"Test Plugin - WordPress", "test"},
		{"Great Plugin [Free Download]", "great"},
		{"Divi [Latest] (Nulled)", "divi"},
		{"Café Manager v1.0", "cafe manager"},
		{"Elementor Pro 3.18.2", "elementor"},
		{"WP Rocket – Best Caching 3.15", "wp rocket"},
		{"Yoast SEO 21.7", "yoast seo"},
		{"Akismet Pro", "akismet"},
		{"  spaced   out  ", "spaced out"},
		{"Premium Theme Download", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanName(tt.title); got != tt.want {
			t.Errorf("CleanName(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestCleanNameIsStable(t *testing.T) {
	once := CleanName("Elementor Pro 3.18.2 [Nulled]")
	twice := CleanName(once)
	if once != twice {
		t.Errorf("CleanName not stable: first %q, second %q", once, twice)
	}
}
