package validation

import "regexp"

// AllowedEmailDomains は登録・ログインで許可するメールドメイン。
// サーバー側で強制するビジネスルールであり、クライアント側の表示とは独立。
var AllowedEmailDomains = []string{"gmail.com", "yahoo.com", "hotmail.com", "outlook.com"}

// usernameRe はユーザー名の形式: 先頭は英字、以降は英数字とアンダースコア。
var usernameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// usernameRules はユーザー名に適用するルール列。登録とプロフィール更新で共用する。
func usernameRules() []Rule {
	return []Rule{
		{Check: MinLen(3), Message: "Username must be at least 3 characters long"},
		{Check: MaxLen(20), Message: "Username must be at most 20 characters long"},
		{Check: Matches(usernameRe), Message: "Username must start with a letter and contain only letters, numbers, and underscores"},
	}
}

// emailRules はメールアドレスに適用するルール列。
// allowDomainsがtrueの場合はドメイン許可リストも検証する。
func emailRules(allowDomains bool) []Rule {
	rules := []Rule{
		{Check: IsEmail, Message: "Please enter a valid email address"},
	}
	if allowDomains {
		rules = append(rules, Rule{
			Check:   DomainAllowed(AllowedEmailDomains),
			Message: "Please use Gmail, Yahoo, or Hotmail email address",
		})
	}
	return rules
}

// RegisterSchema はユーザー登録リクエストのスキーマを返す。
func RegisterSchema() Schema {
	return Schema{Fields: []FieldRules{
		{
			Field:           "username",
			Required:        true,
			RequiredMessage: "Username is required",
			Rules:           usernameRules(),
		},
		{
			Field:           "email",
			Required:        true,
			RequiredMessage: "Email is required",
			Rules:           emailRules(true),
		},
		{
			Field:           "password",
			Required:        true,
			RequiredMessage: "Password is required",
			Rules: []Rule{
				{Check: MinLen(8), Message: "Password must be at least 8 characters long"},
				{Check: PasswordComplexity, Message: "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character"},
			},
		},
	}}
}

// LoginSchema はログインリクエストのスキーマを返す。
func LoginSchema() Schema {
	return Schema{Fields: []FieldRules{
		{
			Field:           "email",
			Required:        true,
			RequiredMessage: "Email is required",
			Rules:           emailRules(true),
		},
		{
			Field:           "password",
			Required:        true,
			RequiredMessage: "Password is required",
			Rules: []Rule{
				{Check: NotBlank, Message: "Password is required"},
			},
		},
	}}
}

// todoFieldRules はTodoの各フィールドのルール列を返す。
// 作成と更新で必須指定だけが異なるため共用する。
func todoFieldRules(titleRequired bool) []FieldRules {
	return []FieldRules{
		{
			Field:           "title",
			Required:        titleRequired,
			RequiredMessage: "Title is required",
			Rules: []Rule{
				{Check: MinLen(1), Message: "Title cannot be empty"},
				{Check: MaxLen(255), Message: "Title must be at most 255 characters long"},
			},
		},
		{
			Field: "description",
			Rules: []Rule{
				{Check: MaxLen(1000), Message: "Description must be at most 1000 characters long"},
			},
		},
		{
			Field: "completed",
			Rules: []Rule{
				{Check: IsBool, Message: "Completed must be a boolean value"},
			},
		},
		{
			Field: "dueDate",
			Rules: []Rule{
				{Check: IsDate, Message: "Due date must be a valid date"},
				{Check: NotPast, Message: "Due date cannot be in the past"},
			},
		},
		{
			Field: "priority",
			Rules: []Rule{
				{Check: OneOf("low", "medium", "high"), Message: "Priority must be low, medium, or high"},
			},
		},
		{
			Field: "reminder",
			Rules: []Rule{
				{Check: IsDate, Message: "Reminder must be a valid date"},
				{Check: NotPast, Message: "Reminder cannot be in the past"},
			},
		},
		{
			Field: "tags",
			Rules: []Rule{
				{Check: IsStringArray, Message: "Tags must be an array of strings"},
				{Check: MaxItems(10), Message: "Maximum 10 tags allowed"},
				{Check: EachMaxLen(20), Message: "Tag must be at most 20 characters long"},
			},
		},
	}
}

// TodoCreateSchema はTodo作成リクエストのスキーマを返す。titleのみ必須。
func TodoCreateSchema() Schema {
	return Schema{Fields: todoFieldRules(true)}
}

// TodoUpdateSchema はTodo更新リクエストのスキーマを返す。全フィールド任意。
func TodoUpdateSchema() Schema {
	return Schema{Fields: todoFieldRules(false)}
}

// ProfileUpdateSchema はプロフィール更新リクエストのスキーマを返す。
// username・emailともに任意で、指定された場合のみ検証する。
func ProfileUpdateSchema() Schema {
	return Schema{Fields: []FieldRules{
		{Field: "username", Rules: usernameRules()},
		{Field: "email", Rules: emailRules(false)},
	}}
}

// RoleUpdateSchema は管理者によるロール変更リクエストのスキーマを返す。
func RoleUpdateSchema() Schema {
	return Schema{Fields: []FieldRules{
		{
			Field:           "role",
			Required:        true,
			RequiredMessage: "Invalid role",
			Rules: []Rule{
				{Check: OneOf("user", "admin"), Message: "Invalid role"},
			},
		},
	}}
}
