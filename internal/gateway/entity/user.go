package entity

import "strings"

// UserID is the stable identifier the transport resolves for a chat user.
type UserID string

func NormalizeUserID(raw string) UserID {
	return UserID(strings.TrimSpace(raw))
}

func (id UserID) String() string {
	return strings.TrimSpace(string(id))
}

func (id UserID) IsZero() bool {
	return id.String() == ""
}
