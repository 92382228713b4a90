package auth

// GoogleSignInRequest carries the credentials returned by Google sign-in on the client.
// AccessToken is the OAuth token with the drive.file scope.
type GoogleSignInRequest struct {
	IDToken     string `json:"id_token" validate:"required"`
	AccessToken string `json:"access_token" validate:"required"`
	// ExpiresIn is the Google access token lifetime in seconds, when the client knows it.
	ExpiresIn int `json:"expires_in" validate:"omitempty,min=0"`
}

// RefreshRequest rotates a session.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// DriveTokenRequest replaces the Google access token of the current session.
type DriveTokenRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
	ExpiresIn   int    `json:"expires_in" validate:"omitempty,min=0"`
}

// UserDTO describes the signed-in cashier.
type UserDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// TokenResponse is returned by sign-in and refresh.
type TokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         *UserDTO `json:"user,omitempty"`
}

// MeResponse is the current-user payload.
type MeResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	DriveLinked bool   `json:"drive_linked"`
}
