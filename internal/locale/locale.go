// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package locale holds the two fixed interface languages, their text bundles
// and reading directions.
package locale

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

// Language is one of the two supported interface languages.
type Language string

const (
	Arabic  Language = "ar"
	English Language = "en"
)

// Default is the language the interface starts in when nothing else is configured.
const Default = Arabic

// Direction is the reading direction of a language.
type Direction int

const (
	LTR Direction = iota
	RTL
)

// String returns "ltr" or "rtl".
func (d Direction) String() string {
	if d == RTL {
		return "rtl"
	}
	return "ltr"
}

// Bundle is the fixed set of user-facing strings for one language.
type Bundle struct {
	Title          string
	Placeholder    string
	Send           string
	Toggle         string // name of the other language, shown on the toggle
	Error          string
	InitialMessage string
}

var bundles = map[Language]Bundle{
	Arabic: {
		Title:          "شات الذكاء الاصطناعي",
		Placeholder:    "اكتب رسالتك هنا...",
		Send:           "إرسال",
		Toggle:         "English",
		Error:          "عفواً، حدث خطأ ما. الرجاء المحاولة مرة أخرى.",
		InitialMessage: "مرحباً! كيف يمكنني مساعدتك اليوم؟",
	},
	English: {
		Title:          "AI Chat",
		Placeholder:    "Type your message here...",
		Send:           "Send",
		Toggle:         "العربية",
		Error:          "Sorry, an error occurred. Please try again.",
		InitialMessage: "Hello! How can I help you today?",
	},
}

// Text returns the bundle for l. Unknown languages get the default bundle.
func (l Language) Text() Bundle {
	if b, ok := bundles[l]; ok {
		return b
	}
	return bundles[Default]
}

// Direction returns RTL for Arabic and LTR for English.
func (l Language) Direction() Direction {
	if l == Arabic {
		return RTL
	}
	return LTR
}

// Toggle returns the other language.
func (l Language) Toggle() Language {
	if l == Arabic {
		return English
	}
	return Arabic
}

// String returns the locale tag ("ar" or "en").
func (l Language) String() string {
	return string(l)
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	_, ok := bundles[l]
	return ok
}

// =============================================================================
// PARSING AND DETECTION
// =============================================================================

var matcher = language.NewMatcher([]language.Tag{
	language.Arabic, // first entry is the fallback
	language.English,
})

// Parse maps a locale string such as "ar", "en-US" or "ar_EG.UTF-8" to a
// supported language.
func Parse(s string) (Language, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("empty language")
	}
	tag, err := language.Parse(normalizePOSIX(s))
	if err != nil {
		return "", fmt.Errorf("parse language %q: %w", s, err)
	}
	base, _ := tag.Base()
	switch base.String() {
	case "ar":
		return Arabic, nil
	case "en":
		return English, nil
	}
	return "", fmt.Errorf("unsupported language %q (want ar or en)", s)
}

// Match picks the best supported language for a list of user preferences,
// falling back to Arabic when nothing matches.
func Match(preferred ...string) Language {
	var tags []language.Tag
	for _, p := range preferred {
		if t, err := language.Parse(normalizePOSIX(p)); err == nil {
			tags = append(tags, t)
		}
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	if idx == 1 {
		return English
	}
	return Arabic
}

// Detect picks a language from the POSIX locale environment
// (LC_ALL, LC_MESSAGES, LANG).
func Detect() Language {
	var prefs []string
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" && v != "C" && v != "POSIX" {
			prefs = append(prefs, v)
		}
	}
	return Match(prefs...)
}

// normalizePOSIX turns "ar_EG.UTF-8@latin" into "ar-EG".
func normalizePOSIX(s string) string {
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	return strings.ReplaceAll(s, "_", "-")
}
