// internal/form/builtin.go
//
// Built-in schemas.  Each one is pure data fed through NewSchema; nothing in
// the parser or handler knows which of them is active.

package form

// RegisterSecret is the fixed value the register form carries in its hidden
// “secret” input.  The server only checks that it is present.
const RegisterSecret = "formdesk"

// SignupSchema is the email + name form served on the index route.
func SignupSchema() *Schema {
	return mustSchema(Schema{
		ID:          "signup",
		Path:        "/",
		Title:       "Sign up",
		SubmitLabel: "Submit",
		ResetLabel:  "Submit Another",
		ThankYou:    "Thank you!",
		Fields: []FieldSpec{
			{Name: "email", Label: "Email", Kind: KindEmail, Required: true},
			{Name: "name", Label: "Name", Kind: KindText, Required: true},
		},
	})
}

// RegisterSchema is the name + email form with a hidden secret.
func RegisterSchema() *Schema {
	return mustSchema(Schema{
		ID:          "register",
		Path:        "/register",
		Title:       "Register",
		SubmitLabel: "Submit",
		ResetLabel:  "Submit Another",
		ThankYou:    "Thank you!",
		Fields: []FieldSpec{
			{Name: "name", Label: "Name", Kind: KindText, MaxLength: 100, Required: true},
			{Name: "email", Label: "Email", Kind: KindEmail, MaxLength: 100, Required: true},
			{Name: "secret", Label: "Secret", Kind: KindText, Required: true, Hidden: true, Default: RegisterSecret},
		},
	})
}

// ContactSchema is the six-field Japanese contact form.
func ContactSchema() *Schema {
	return mustSchema(Schema{
		ID:          "contact",
		Path:        "/api/contact",
		Lang:        "ja",
		Title:       "お問い合わせ",
		SubmitLabel: "Let's talk",
		ResetLabel:  "別のお問い合わせをする",
		ThankYou:    "お問い合わせありがとうございます",
		Lead:        "以下のメッセージを受付けました。",
		Fields: []FieldSpec{
			{Name: "name", Label: "お名前", Kind: KindText, Required: true},
			{Name: "company", Label: "会社名", Kind: KindText},
			{Name: "phone", Label: "電話番号", Kind: KindText, MaxLength: 20},
			{Name: "email", Label: "メール", Kind: KindEmail, Required: true},
			{Name: "message", Label: "メッセージ", Kind: KindLongText, MaxLength: 10000, Required: true},
			{Name: "privacyPolicy", Label: "privacy", Kind: KindCheckbox, Required: true},
		},
	})
}

// Builtin returns fresh copies of every built-in schema.
func Builtin() []*Schema {
	return []*Schema{SignupSchema(), RegisterSchema(), ContactSchema()}
}

func mustSchema(s Schema) *Schema {
	out, err := NewSchema(s)
	if err != nil {
		panic(err)
	}
	return out
}
