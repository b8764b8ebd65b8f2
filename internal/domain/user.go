package domain

import "time"

// User is the subset of the account record the recovery flow reads and mutates.
type User struct {
	UserID       string             `json:"id" dynamodbav:"user_id"`
	Verification VerificationRecord `json:"-" dynamodbav:"verification"`
	UpdatedAt    time.Time          `json:"updated" dynamodbav:"updated_at"`
}

// VerificationRecord holds the outstanding recovery token and the per-channel codes.
// Expirations are Unix seconds.
type VerificationRecord struct {
	Key             string `json:"key" dynamodbav:"key"`
	EmailCode       string `json:"email_code,omitempty" dynamodbav:"email_code,omitempty"`
	PhoneCode       string `json:"phone_code,omitempty" dynamodbav:"phone_code,omitempty"`
	EmailExpiration int64  `json:"email_expiration,omitempty" dynamodbav:"email_expiration,omitempty"`
	PhoneExpiration int64  `json:"phone_expiration,omitempty" dynamodbav:"phone_expiration,omitempty"`
}

// Code returns the stored code for ch.
func (v VerificationRecord) Code(ch Channel) string {
	if ch == ChannelPhone {
		return v.PhoneCode
	}
	return v.EmailCode
}

// Expiration returns the stored expiration for ch.
func (v VerificationRecord) Expiration(ch Channel) int64 {
	if ch == ChannelPhone {
		return v.PhoneExpiration
	}
	return v.EmailExpiration
}

// RecoveryMatch is the lookup predicate for an exchange: the presented key must be the
// live one on the user's record and the code must equal the stored code for Channel.
type RecoveryMatch struct {
	UserID  string
	Key     string
	Channel Channel
	Code    string
}

// KeyRotation replaces OldKey with NewKey, provided the record still holds OldKey and Code
// and the channel expiration is not before NotBefore (Unix seconds).
// RotatedAt is recorded as the record's update time.
type KeyRotation struct {
	UserID      string
	Channel     Channel
	OldKey      string
	Code        string
	NewKey      string
	NotBefore   int64
	RotatedAt   time.Time
	ConsumeCode bool
}
