package users

// UserInput is the payload for creating and editing a user.
// Struct tags carry the validation rules; field names in issues use the
// JSON names.
type UserInput struct {
	Email           string `json:"email" validate:"required,email,max=255" example:"demo@example.com"`
	Password        string `json:"password" validate:"required,min=6,max=255" example:"123456"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password" example:"123456"`
}
