package domain

// ResetClaims is the plaintext carried inside an opaque recovery token.
// Expiration is absent on tokens minted by the initial request and always set on
// tokens issued by a code exchange.
type ResetClaims struct {
	SubjectID  string  `json:"_id"`
	Channel    Channel `json:"type"`
	Expiration *int64  `json:"expiration,omitempty"`
	TokenID    string  `json:"token_id,omitempty"`
}
