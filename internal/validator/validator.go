package validator

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"inkpress/internal/model"
)

// Validator provides validation for request payloads.
type Validator struct{}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateRegister validates a registration payload.
func (v *Validator) ValidateRegister(req *model.RegisterRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.FullName,
			validation.Required.Error("full_name_required"),
			validation.Length(1, 100).Error("full_name_too_long"),
		),
		validation.Field(&req.Email,
			validation.Required.Error("email_required"),
			is.Email.Error("invalid_email_format"),
		),
		validation.Field(&req.Password,
			validation.Required.Error("password_required"),
			validation.Length(8, 72).Error("password_length_invalid"),
		),
	)
}

// ValidateLogin validates a login payload.
func (v *Validator) ValidateLogin(req *model.LoginRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Email,
			validation.Required.Error("email_required"),
			is.Email.Error("invalid_email_format"),
		),
		validation.Field(&req.Password,
			validation.Required.Error("password_required"),
		),
	)
}

// ValidateResetPassword validates a password reset payload.
func (v *Validator) ValidateResetPassword(req *model.ResetPasswordRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Token,
			validation.Required.Error("token_required"),
		),
		validation.Field(&req.NewPassword,
			validation.Required.Error("password_required"),
			validation.Length(8, 72).Error("password_length_invalid"),
		),
	)
}

// ValidateCreatePost validates a post creation payload.
func (v *Validator) ValidateCreatePost(req *model.CreatePostRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required.Error("title_required"),
			validation.Length(1, model.MaxPostTitleLength).Error("title_too_long"),
		),
		validation.Field(&req.Body,
			validation.Required.Error("body_required"),
			validation.Length(1, model.MaxPostBodyLength).Error("body_too_long"),
		),
	)
}

// ValidateCreateCategory validates a category creation payload.
func (v *Validator) ValidateCreateCategory(req *model.CreateCategoryRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required.Error("name_required"),
			validation.Length(1, 100).Error("name_too_long"),
		),
	)
}

// ValidateComment validates a comment body payload.
func (v *Validator) ValidateComment(body string) error {
	return validation.Validate(body,
		validation.Required.Error("body_required"),
		validation.Length(1, model.MaxCommentLength).Error("body_too_long"),
	)
}
