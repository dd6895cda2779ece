package config

import (
	"os"
	"testing"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	os.Setenv("BRAVUR_API_URL", "")
	os.Setenv("HTTP_ADDRESS", "")
	os.Setenv("DEFAULT_LOCALE", "")
	cfg := Load()
	if cfg.APIBaseURL == "" {
		t.Fatalf("expected default api base url")
	}
	if cfg.HTTPAddress == "" {
		t.Fatalf("expected default http address")
	}
	if cfg.DefaultLocale != "nl-NL" {
		t.Fatalf("expected default locale nl-NL, got %q", cfg.DefaultLocale)
	}
}

func TestLoad_RejectsUnknownLocale(t *testing.T) {
	os.Setenv("DEFAULT_LOCALE", "fr-FR")
	defer os.Unsetenv("DEFAULT_LOCALE")
	cfg := Load()
	if cfg.DefaultLocale != "nl-NL" {
		t.Fatalf("expected fallback to nl-NL, got %q", cfg.DefaultLocale)
	}
}

func TestLoad_AcceptsEnglishLocale(t *testing.T) {
	os.Setenv("DEFAULT_LOCALE", "en-US")
	defer os.Unsetenv("DEFAULT_LOCALE")
	cfg := Load()
	if cfg.DefaultLocale != "en-US" {
		t.Fatalf("expected en-US, got %q", cfg.DefaultLocale)
	}
}
