// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestNew(t *testing.T) {
	t.Run("new i18n provider with empty locale string succeeds", func(t *testing.T) {
		provider, err := New("")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		if provider == nil {
			t.Fatal("expected i18n provider to be non-nil")
		}
	})
	t.Run("english returns the source text", func(t *testing.T) {
		provider, err := New("en")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		if got := provider.Get("No stop provided"); got != "No stop provided" {
			t.Errorf("expected source text, got %q", got)
		}
	})
	t.Run("german uses the embedded catalog", func(t *testing.T) {
		provider, err := New("de")
		if err != nil {
			t.Fatalf("failed to create i18n provider: %s", err)
		}
		if got := provider.Get("No stop provided"); got != "Keine Haltestelle angegeben" {
			t.Errorf("expected german translation, got %q", got)
		}
	})
}

func TestTag(t *testing.T) {
	if tag := Tag("de-DE"); tag != language.MustParse("de-DE") {
		t.Errorf("expected de-DE, got %s", tag)
	}
	if tag := Tag("en"); tag != language.English {
		t.Errorf("expected en, got %s", tag)
	}
}
