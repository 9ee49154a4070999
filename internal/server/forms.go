package server

import (
	"errors"
	"strconv"

	"yatube/internal/models"
	"yatube/internal/service"
)

// formField describes one input of a form page.
type formField struct {
	Name     string       `json:"name"`
	Label    string       `json:"label"`
	Type     string       `json:"type"`
	Required bool         `json:"required"`
	Value    string       `json:"value,omitempty"`
	HelpText string       `json:"help_text,omitempty"`
	Choices  []formChoice `json:"choices,omitempty"`
	Errors   []string     `json:"errors,omitempty"`
}

type formChoice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// formView is the JSON rendering of a form: its fields, their submitted
// values and any errors from the last submission.
type formView struct {
	Action         string      `json:"action"`
	Method         string      `json:"method"`
	Multipart      bool        `json:"multipart,omitempty"`
	Fields         []formField `json:"fields"`
	NonFieldErrors []string    `json:"non_field_errors,omitempty"`
}

// bind attaches an error to its field, or to the form when no field matches.
func (f *formView) bind(err error) {
	field, msg := "", err.Error()
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		field, msg = appErr.Field, appErr.Message
	}
	for i := range f.Fields {
		if f.Fields[i].Name == field {
			f.Fields[i].Errors = append(f.Fields[i].Errors, msg)
			return
		}
	}
	f.NonFieldErrors = append(f.NonFieldErrors, msg)
}

// Valid reports whether the form carries no errors.
func (f *formView) Valid() bool {
	if len(f.NonFieldErrors) > 0 {
		return false
	}
	for _, field := range f.Fields {
		if len(field.Errors) > 0 {
			return false
		}
	}
	return true
}

// postFormData is the submitted content of the post form.
type postFormData struct {
	Text  string `form:"text" json:"text"`
	Group string `form:"group" json:"group"`
}

func postForm(action string, data postFormData, groups []service.GroupView) *formView {
	choices := make([]formChoice, 0, len(groups)+1)
	choices = append(choices, formChoice{Value: "", Label: "---------"})
	for _, g := range groups {
		choices = append(choices, formChoice{Value: strconv.FormatUint(uint64(g.ID), 10), Label: g.Title})
	}

	return &formView{
		Action:    action,
		Method:    "post",
		Multipart: true,
		Fields: []formField{
			{Name: "text", Label: "Post text", Type: "textarea", Required: true, Value: data.Text, HelpText: "Text of the new post"},
			{Name: "group", Label: "Group", Type: "select", Value: data.Group, HelpText: "Group the post will belong to", Choices: choices},
			{Name: "image", Label: "Image", Type: "file", HelpText: "Picture attached to the post"},
		},
	}
}

func commentForm(postID uint) *formView {
	return &formView{
		Action: "/posts/" + strconv.FormatUint(uint64(postID), 10) + "/comment/",
		Method: "post",
		Fields: []formField{
			{Name: "text", Label: "Comment", Type: "textarea", Required: true, HelpText: "Text of the comment"},
		},
	}
}

func loginForm(username string) *formView {
	return &formView{
		Action: "/auth/login/",
		Method: "post",
		Fields: []formField{
			{Name: "username", Label: "Username", Type: "text", Required: true, Value: username},
			{Name: "password", Label: "Password", Type: "password", Required: true},
		},
	}
}

func signupForm(username, email string) *formView {
	return &formView{
		Action: "/auth/signup/",
		Method: "post",
		Fields: []formField{
			{Name: "username", Label: "Username", Type: "text", Required: true, Value: username},
			{Name: "email", Label: "Email", Type: "email", Required: true, Value: email},
			{Name: "password", Label: "Password", Type: "password", Required: true,
				HelpText: "At least 12 characters with upper and lower case letters, a digit and a special character."},
		},
	}
}
