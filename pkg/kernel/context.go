package kernel

// AuthContext identifies the caller of a request. It is stored in fiber
// locals under LocalsAuthKey by the bearer and API key middlewares.
type AuthContext struct {
	UserID   UserID `json:"user_id"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	IsAPIKey bool   `json:"is_api_key"`
	APIKeyID string `json:"api_key_id,omitempty"`
}

func (ac *AuthContext) IsValid() bool {
	return ac != nil && !ac.UserID.IsEmpty()
}

// LocalsAuthKey is the fiber locals key holding *AuthContext.
const LocalsAuthKey = "auth"
