package auth

const TokenTypeBearer = "Bearer"

type LoginRequest struct {
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

// LoginResponse is returned by both login and refresh.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
	UserID      int64  `json:"userId"`
	LoginID     string `json:"loginId"`
	Role        string `json:"role"`
}

type MeResponse struct {
	UserID  int64  `json:"userId"`
	LoginID string `json:"loginId"`
	Role    string `json:"role"`
}

// AuthResult pairs the response body with the raw refresh token that goes
// into the cookie.
type AuthResult struct {
	Response     LoginResponse
	RefreshToken string
}
