// Package validation はリクエストボディのスキーマ検証を提供する。
//
// スキーマはフィールド名から順序付きの（述語, メッセージ）リストへの
// 対応として定義し、宣言順に評価して最初に違反したルールのメッセージ
// だけを返す（first error wins）。違反の集約は行わない。
package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Predicate はデコード済みJSON値に対する検証述語。
// 値が制約を満たす場合にtrueを返す。
type Predicate func(value any) bool

// Rule は1つの検証ルール（述語と違反時メッセージの組）を表す。
type Rule struct {
	Check   Predicate
	Message string
}

// FieldRules は1フィールドに適用するルールの順序付きリストを表す。
// Requiredがfalseのフィールドは、値が存在しない場合に全ルールをスキップする。
type FieldRules struct {
	Field           string
	Required        bool
	RequiredMessage string
	Rules           []Rule
}

// Schema は検証対象フィールドの宣言順リストを表す。
type Schema struct {
	Fields []FieldRules
}

// FirstError はボディをスキーマに対して宣言順に検証し、
// 最初に違反したルールのメッセージを返す。違反がなければ空文字列を返す。
// JSONのnullは未指定と同様に扱う。
func (s Schema) FirstError(body map[string]any) string {
	for _, f := range s.Fields {
		value, present := body[f.Field]
		if !present || value == nil {
			if f.Required {
				return f.RequiredMessage
			}
			continue
		}

		for _, rule := range f.Rules {
			if !rule.Check(value) {
				return rule.Message
			}
		}
	}
	return ""
}

// --- 述語 ---

// IsString は値が文字列であることを検証する。
func IsString(value any) bool {
	_, ok := value.(string)
	return ok
}

// IsBool は値が真偽値であることを検証する。
func IsBool(value any) bool {
	_, ok := value.(bool)
	return ok
}

// MinLen は文字列長が最小値以上であることを検証する述語を返す。
// 文字列以外の値は不合格とする。
func MinLen(n int) Predicate {
	return func(value any) bool {
		s, ok := value.(string)
		return ok && len([]rune(s)) >= n
	}
}

// MaxLen は文字列長が最大値以下であることを検証する述語を返す。
func MaxLen(n int) Predicate {
	return func(value any) bool {
		s, ok := value.(string)
		return ok && len([]rune(s)) <= n
	}
}

// NotBlank は空白のみでない非空文字列であることを検証する。
func NotBlank(value any) bool {
	s, ok := value.(string)
	return ok && strings.TrimSpace(s) != ""
}

// Matches は文字列が正規表現に一致することを検証する述語を返す。
func Matches(re *regexp.Regexp) Predicate {
	return func(value any) bool {
		s, ok := value.(string)
		return ok && re.MatchString(s)
	}
}

// emailRe はメールアドレスの形式チェック用。厳密なRFC準拠は狙わない。
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// IsEmail はメールアドレス形式であることを検証する。
func IsEmail(value any) bool {
	s, ok := value.(string)
	return ok && emailRe.MatchString(s)
}

// DomainAllowed はメールアドレスのドメインが許可リストに含まれる
// ことを検証する述語を返す。比較は小文字化して行う。
func DomainAllowed(domains []string) Predicate {
	return func(value any) bool {
		s, ok := value.(string)
		if !ok {
			return false
		}
		at := strings.LastIndex(s, "@")
		if at < 0 {
			return false
		}
		domain := strings.ToLower(s[at+1:])
		for _, d := range domains {
			if domain == d {
				return true
			}
		}
		return false
	}
}

// passwordSpecials はパスワードに要求する記号の集合。
const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

// PasswordComplexity は大文字・小文字・数字・記号を各1文字以上
// 含むことを検証する。Goのregexpは先読みを持たないため走査で判定する。
func PasswordComplexity(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(passwordSpecials, r):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSpecial
}

// OneOf は文字列が候補のいずれかであることを検証する述語を返す。
func OneOf(options ...string) Predicate {
	return func(value any) bool {
		s, ok := value.(string)
		if !ok {
			return false
		}
		for _, o := range options {
			if s == o {
				return true
			}
		}
		return false
	}
}

// IsDate はRFC 3339形式の日時文字列であることを検証する。
func IsDate(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

// NotPast は日時が現在以降であることを検証する。
// 形式が不正な値はIsDateで先に弾く前提で不合格とする。
func NotPast(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return false
	}
	return !t.Before(time.Now())
}

// IsStringArray は値が文字列のみからなる配列であることを検証する。
func IsStringArray(value any) bool {
	arr, ok := value.([]any)
	if !ok {
		return false
	}
	for _, elem := range arr {
		if _, ok := elem.(string); !ok {
			return false
		}
	}
	return true
}

// MaxItems は配列の要素数が最大値以下であることを検証する述語を返す。
func MaxItems(n int) Predicate {
	return func(value any) bool {
		arr, ok := value.([]any)
		return ok && len(arr) <= n
	}
}

// EachMaxLen は配列の各文字列要素の長さが最大値以下であることを
// 検証する述語を返す。
func EachMaxLen(n int) Predicate {
	return func(value any) bool {
		arr, ok := value.([]any)
		if !ok {
			return false
		}
		for _, elem := range arr {
			s, ok := elem.(string)
			if !ok || len([]rune(s)) > n {
				return false
			}
		}
		return true
	}
}
