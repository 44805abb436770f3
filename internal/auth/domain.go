package auth

// SaltResponse is returned by the salt endpoint.
type SaltResponse struct {
	Salt string `json:"salt"`
}

// TokenResponse is returned after a successful login. Level carries the
// role tier.
type TokenResponse struct {
	Token string `json:"token"`
	Level string `json:"level"`
}

type credentials struct {
	Username string `validate:"required"`
	Digest   string `validate:"required,hexadecimal,len=128"`
}
