package auth

import "crypto/subtle"

// BasicAuth validates credentials against a single configured pair.
type BasicAuth struct {
	username []byte
	password []byte
}

// NewBasicAuth creates a BasicAuth for one username/password pair.
func NewBasicAuth(username, password string) *BasicAuth {
	return &BasicAuth{username: []byte(username), password: []byte(password)}
}

// Validate compares both fields in constant time. An unconfigured pair
// accepts nothing.
func (a *BasicAuth) Validate(username, password string) bool {
	if len(a.username) == 0 || len(a.password) == 0 {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), a.username)
	passOK := subtle.ConstantTimeCompare([]byte(password), a.password)
	return userOK&passOK == 1
}
