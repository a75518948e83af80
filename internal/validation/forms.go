package validation

import "strings"

// ImageUpload is a file submitted with a post form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// PostInput is the post create/edit form.
type PostInput struct {
	Text    string
	GroupID *uint
	Image   *ImageUpload
}

// Normalize trims surrounding whitespace from the text.
func (in *PostInput) Normalize() {
	in.Text = strings.TrimSpace(in.Text)
}

// Validate checks the fields that need no storage lookups. Group existence and
// image decoding are checked by the post service.
func (in PostInput) Validate() *Validator {
	v := New()
	v.Check(strings.TrimSpace(in.Text) != "", "text", MsgRequired)
	if in.GroupID != nil {
		v.Check(*in.GroupID > 0, "group", MsgInvalidChoice)
	}
	if in.Image != nil {
		v.Check(len(in.Image.Content) > 0, "image", "The submitted file is empty.")
		v.Check(strings.TrimSpace(in.Image.Filename) != "", "image", "No file was submitted. Check the encoding type on the form.")
	}
	return v
}

// CommentInput is the comment form.
type CommentInput struct {
	Text string
}

// Validate checks that the comment has text.
func (in CommentInput) Validate() *Validator {
	v := New()
	v.Check(strings.TrimSpace(in.Text) != "", "text", MsgRequired)
	return v
}

// SignupInput is the account creation form.
type SignupInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password1 string
	Password2 string
}

// Validate checks every signup field; username uniqueness is checked by the user service.
func (in SignupInput) Validate() *Validator {
	v := New()
	v.CheckErr(ValidateUsername(in.Username), "username")
	v.CheckErr(ValidateEmail(in.Email), "email")
	v.Check(len([]rune(in.FirstName)) <= 150, "first_name", "Ensure this value has at most 150 characters.")
	v.Check(len([]rune(in.LastName)) <= 150, "last_name", "Ensure this value has at most 150 characters.")
	v.Check(in.Password1 != "", "password1", MsgRequired)
	v.Check(in.Password2 != "", "password2", MsgRequired)
	if in.Password1 != "" && in.Password2 != "" {
		v.Check(in.Password1 == in.Password2, "password2", "The two password fields didn't match.")
		if in.Password1 == in.Password2 {
			v.CheckErr(ValidatePassword(in.Password1, in.Username), "password2")
		}
	}
	return v
}

// LoginInput is the login form.
type LoginInput struct {
	Username string
	Password string
}

// Validate checks that both credentials are present.
func (in LoginInput) Validate() *Validator {
	v := New()
	v.Check(strings.TrimSpace(in.Username) != "", "username", MsgRequired)
	v.Check(in.Password != "", "password", MsgRequired)
	return v
}
