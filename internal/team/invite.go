package team

import (
	"math/rand"
	"regexp"
)

const (
	inviteCodeLength   = 8
	inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var inviteCodePattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// GenerateInviteCode returns an 8-character code drawn uniformly from
// A-Z0-9. Uniqueness is not guaranteed here; the teams table's unique
// index is the arbiter and CreateTeam regenerates on collision.
func GenerateInviteCode() string {
	code := make([]byte, inviteCodeLength)
	for i := range code {
		code[i] = inviteCodeAlphabet[rand.Intn(len(inviteCodeAlphabet))]
	}
	return string(code)
}

// IsValidInviteCode reports whether the code matches the generator's
// format: exactly 8 uppercase alphanumeric characters.
func IsValidInviteCode(code string) bool {
	return inviteCodePattern.MatchString(code)
}
