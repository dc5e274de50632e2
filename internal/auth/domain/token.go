package domain

// TokenPair is what a successful signup/login/refresh returns: the
// short-lived access token and the long-lived refresh token, both JWTs.
// Neither is persisted; validity is proven by signature and expiry, and
// refresh revocation is tracked separately by jti.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"` // "Bearer"
	ExpiresIn    int64  `json:"expires_in"`           // access token lifetime, seconds
}
