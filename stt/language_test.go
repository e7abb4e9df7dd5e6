package stt

import "testing"

func TestParseLanguageCode(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"en_US.UTF-8", "en", true},
		{"de-DE", "de", true},
		{"zh-Hans", "zh", true},
		{"fr", "fr", true},
		{"pt_BR@euro", "pt", true},
		{"C", "", false},
		{"C.UTF-8", "", false},
		{"POSIX", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLanguageCode(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLanguageCode(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		name     string
		override string
		env      map[string]string
		system   []string
		want     string
	}{
		{"override_wins", "ja", map[string]string{"LANG": "de_DE.UTF-8"}, nil, "ja"},
		{"explicit_auto", "auto", map[string]string{"LANG": "de_DE.UTF-8"}, nil, "auto"},
		{"lc_all_first", "", map[string]string{"LC_ALL": "es_ES.UTF-8", "LANG": "de_DE.UTF-8"}, nil, "es"},
		{"lc_ctype_before_lang", "", map[string]string{"LC_CTYPE": "it_IT.UTF-8", "LANG": "de_DE.UTF-8"}, nil, "it"},
		{"posix_locale_skipped", "", map[string]string{"LC_ALL": "C", "LANG": "nl_NL.UTF-8"}, nil, "nl"},
		{"system_preference", "", nil, []string{"ko-KR"}, "ko"},
		{"nothing_known", "", nil, nil, "auto"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
				t.Setenv(k, tt.env[k])
			}
			orig := systemLanguages
			systemLanguages = func() []string { return tt.system }
			t.Cleanup(func() { systemLanguages = orig })

			if got := ResolveLanguage(tt.override); got != tt.want {
				t.Errorf("ResolveLanguage(%q) = %q, want %q", tt.override, got, tt.want)
			}
		})
	}
}
