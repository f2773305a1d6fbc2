package auth

// Credentials is the login request payload.
// `example:"..."` tags feed the Swagger documentation.
type Credentials struct {
	Email    string `json:"email" validate:"required,email" example:"demo@example.com"`
	Password string `json:"password" validate:"required" example:"123456"`
}
