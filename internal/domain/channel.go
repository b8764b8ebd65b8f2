package domain

import "fmt"

// Channel is the out-of-band medium a verification code was delivered through.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

// ParseChannel accepts exactly "email" or "phone".
func ParseChannel(s string) (Channel, error) {
	switch Channel(s) {
	case ChannelEmail, ChannelPhone:
		return Channel(s), nil
	}
	return "", fmt.Errorf("channel %q: %w", s, ErrUnknownChannel)
}

// CodeField is the attribute name of the stored code for c.
func (c Channel) CodeField() string {
	return string(c) + "_code"
}

// ExpirationField is the attribute name of the stored expiration for c.
func (c Channel) ExpirationField() string {
	return string(c) + "_expiration"
}
