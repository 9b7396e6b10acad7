package model

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success        bool   `json:"success"`
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	AccessToken    string `json:"accessToken"`
}

// RedirectUser is the JSON blob embedded in the rich OAuth redirect.
type RedirectUser struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture"`
	Token          string `json:"token"`
}

func NewAuthResponse(user *User, accessToken string) AuthResponse {
	return AuthResponse{
		Success:        true,
		ID:             user.ID.Hex(),
		Name:           user.Name,
		Email:          user.Email,
		ProfilePicture: user.ProfilePicture,
		AccessToken:    accessToken,
	}
}

// UserResponse echoes the authenticated identity.
type UserResponse struct {
	Success bool  `json:"success"`
	User    *User `json:"user"`
}
