package locale

import "testing"

func TestNormalizeLanguage(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "zh", want: LanguageChinese},
		{input: "zh-CN", want: LanguageChinese},
		{input: "ZH_hans", want: LanguageChinese},
		{input: "en", want: LanguageEnglish},
		{input: "en-US", want: LanguageEnglish},
		{input: "fr", want: ""},
		{input: "", want: ""},
	}

	for _, tc := range cases {
		if got := NormalizeLanguage(tc.input); got != tc.want {
			t.Fatalf("NormalizeLanguage(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestLanguageFromAcceptLanguage(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{input: "zh-CN,zh;q=0.9", want: LanguageChinese},
		{input: "en-US,en;q=0.9,zh;q=0.8", want: LanguageEnglish},
		{input: "fr-FR,zh;q=0.5", want: LanguageChinese},
		{input: "fr-FR,fr;q=0.9", want: ""},
		{input: "", want: ""},
	}

	for _, tc := range cases {
		if got := LanguageFromAcceptLanguage(tc.input); got != tc.want {
			t.Fatalf("LanguageFromAcceptLanguage(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	if got := Resolve("zh", "en-US"); got != LanguageChinese {
		t.Fatalf("explicit language should win, got %q", got)
	}
	if got := Resolve("", "zh-TW"); got != LanguageChinese {
		t.Fatalf("expected header language, got %q", got)
	}
	if got := Resolve("de", "fr"); got != LanguageEnglish {
		t.Fatalf("expected english fallback, got %q", got)
	}
}

func TestPick(t *testing.T) {
	if got := Pick("zh", "Hello", "你好"); got != "你好" {
		t.Fatalf("expected chinese text, got %q", got)
	}
	if got := Pick("", "Hello", "你好"); got != "Hello" {
		t.Fatalf("expected english default, got %q", got)
	}
	if got := Pick("zh", "Hello", ""); got != "Hello" {
		t.Fatalf("expected fallback to english, got %q", got)
	}
	if got := Pick("en", "", "你好"); got != "你好" {
		t.Fatalf("expected fallback to chinese, got %q", got)
	}
}
