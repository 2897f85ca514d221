// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggle_ChangesDirectionAndAllStrings(t *testing.T) {
	for _, lang := range []Language{Arabic, English} {
		other := lang.Toggle()
		require.NotEqual(t, lang, other)
		assert.Equal(t, lang, other.Toggle())
		assert.NotEqual(t, lang.Direction(), other.Direction())

		a, b := lang.Text(), other.Text()
		assert.NotEqual(t, a.Title, b.Title)
		assert.NotEqual(t, a.Placeholder, b.Placeholder)
		assert.NotEqual(t, a.Send, b.Send)
		assert.NotEqual(t, a.Toggle, b.Toggle)
		assert.NotEqual(t, a.Error, b.Error)
		assert.NotEqual(t, a.InitialMessage, b.InitialMessage)
	}
}

func TestDirection(t *testing.T) {
	assert.Equal(t, RTL, Arabic.Direction())
	assert.Equal(t, LTR, English.Direction())
	assert.Equal(t, "rtl", RTL.String())
	assert.Equal(t, "ltr", LTR.String())
}

func TestToggleLabelNamesOtherLanguage(t *testing.T) {
	assert.Equal(t, "English", Arabic.Text().Toggle)
	assert.Equal(t, "العربية", English.Text().Toggle)
}

func TestUnknownLanguageFallsBack(t *testing.T) {
	assert.Equal(t, Arabic.Text(), Language("fr").Text())
	assert.False(t, Language("fr").Valid())
	assert.True(t, English.Valid())
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Language
		wantErr bool
	}{
		{in: "ar", want: Arabic},
		{in: "en", want: English},
		{in: "en-US", want: English},
		{in: "ar_EG.UTF-8", want: Arabic},
		{in: " EN ", want: English},
		{in: "fr", wantErr: true},
		{in: "", wantErr: true},
		{in: "not a tag!", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := Parse(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestMatch(t *testing.T) {
	assert.Equal(t, English, Match("en_US.UTF-8"))
	assert.Equal(t, Arabic, Match("ar-SA"))
	assert.Equal(t, Arabic, Match())
	assert.Equal(t, English, Match("garbage!!", "en"))
}

func TestDetect(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "en_GB.UTF-8")
	assert.Equal(t, English, Detect())

	t.Setenv("LANG", "C")
	assert.Equal(t, Arabic, Detect())
}
