package validation

import (
	"testing"
	"time"
)

func TestSchema_FirstError_Order(t *testing.T) {
	schema := Schema{Fields: []FieldRules{
		{
			Field:           "a",
			Required:        true,
			RequiredMessage: "a is required",
			Rules: []Rule{
				{Check: MinLen(3), Message: "a too short"},
				{Check: MaxLen(5), Message: "a too long"},
			},
		},
		{
			Field: "b",
			Rules: []Rule{
				{Check: IsBool, Message: "b must be bool"},
			},
		},
	}}

	tests := []struct {
		name string
		body map[string]any
		want string
	}{
		{
			name: "全フィールド合格",
			body: map[string]any{"a": "hello", "b": true},
			want: "",
		},
		{
			name: "必須フィールド欠落",
			body: map[string]any{"b": true},
			want: "a is required",
		},
		{
			name: "nullは未指定扱い",
			body: map[string]any{"a": nil},
			want: "a is required",
		},
		{
			name: "最初の違反のみ返す",
			body: map[string]any{"a": "x", "b": "not-bool"},
			want: "a too short",
		},
		{
			name: "同一フィールド内もルール順",
			body: map[string]any{"a": "toolongvalue"},
			want: "a too long",
		},
		{
			name: "任意フィールドは欠落を許容",
			body: map[string]any{"a": "hello"},
			want: "",
		},
		{
			name: "任意フィールドも指定時は検証",
			body: map[string]any{"a": "hello", "b": 42.0},
			want: "b must be bool",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := schema.FirstError(tt.body); got != tt.want {
				t.Errorf("FirstError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMinLen_MaxLen_Runes(t *testing.T) {
	// バイト数ではなく文字数で判定する
	if !MinLen(3)("あいう") {
		t.Error("MinLen(3) should accept 3 multibyte runes")
	}
	if MaxLen(3)("あいうえ") {
		t.Error("MaxLen(3) should reject 4 multibyte runes")
	}
	if MinLen(1)(123.0) {
		t.Error("MinLen should reject non-string")
	}
}

func TestNotBlank(t *testing.T) {
	if NotBlank("   ") {
		t.Error("NotBlank should reject whitespace-only string")
	}
	if !NotBlank(" x ") {
		t.Error("NotBlank should accept string with content")
	}
}

func TestIsEmail(t *testing.T) {
	valid := []string{"user@gmail.com", "a.b+c@example.co.jp"}
	invalid := []string{"not-an-email", "user@", "@gmail.com", "user gmail@x.com", "user@nodot"}

	for _, s := range valid {
		if !IsEmail(s) {
			t.Errorf("IsEmail(%q) = false, want true", s)
		}
	}
	for _, s := range invalid {
		if IsEmail(s) {
			t.Errorf("IsEmail(%q) = true, want false", s)
		}
	}
}

func TestDomainAllowed(t *testing.T) {
	pred := DomainAllowed([]string{"gmail.com", "yahoo.com"})

	if !pred("user@gmail.com") {
		t.Error("gmail.com should be allowed")
	}
	// ドメイン比較は大文字小文字を無視する
	if !pred("user@GMAIL.COM") {
		t.Error("domain comparison should be case-insensitive")
	}
	if pred("user@example.com") {
		t.Error("example.com should be rejected")
	}
	if pred("no-at-sign") {
		t.Error("value without @ should be rejected")
	}
}

func TestPasswordComplexity(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Passw0rd!", true},
		{"passw0rd!", false}, // 大文字なし
		{"PASSW0RD!", false}, // 小文字なし
		{"Password!", false}, // 数字なし
		{"Passw0rd1", false}, // 記号なし
		{`Aa1"`, true},
	}

	for _, tt := range tests {
		if got := PasswordComplexity(tt.password); got != tt.want {
			t.Errorf("PasswordComplexity(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}

func TestIsDate_NotPast(t *testing.T) {
	future := time.Now().Add(24 * time.Hour).Format(time.RFC3339)
	past := time.Now().Add(-24 * time.Hour).Format(time.RFC3339)

	if !IsDate(future) {
		t.Error("RFC3339 string should be a valid date")
	}
	if IsDate("2025-13-45") {
		t.Error("malformed date should be rejected")
	}
	if !NotPast(future) {
		t.Error("future date should pass NotPast")
	}
	if NotPast(past) {
		t.Error("past date should fail NotPast")
	}
}

func TestArrayPredicates(t *testing.T) {
	// JSONデコード後の配列は[]any型になる
	tags := []any{"work", "urgent"}

	if !IsStringArray(tags) {
		t.Error("string array should pass IsStringArray")
	}
	if IsStringArray([]any{"ok", 1.0}) {
		t.Error("mixed array should fail IsStringArray")
	}
	if !MaxItems(2)(tags) {
		t.Error("2 items should pass MaxItems(2)")
	}
	if MaxItems(1)(tags) {
		t.Error("2 items should fail MaxItems(1)")
	}
	if !EachMaxLen(6)(tags) {
		t.Error("short tags should pass EachMaxLen(6)")
	}
	if EachMaxLen(3)(tags) {
		t.Error("EachMaxLen(3) should reject a 6-char tag")
	}
}
