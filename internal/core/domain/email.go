package domain

import (
	"regexp"
	"strings"
)

// maxEmailLength follows RFC 5321's upper bound on address length.
const maxEmailLength = 254

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// freeMailDomains lists well-known consumer webmail providers.
var freeMailDomains = map[string]struct{}{
	"gmail.com":   {},
	"yahoo.com":   {},
	"hotmail.com": {},
	"outlook.com": {},
	"aol.com":     {},
	"icloud.com":  {},
	"gmx.com":     {},
	"proton.me":   {},
}

// Email is a validated, normalized (trimmed, lower-cased) email address.
type Email string

// NewEmail normalizes raw and validates it against a simple
// local@domain.tld pattern.
func NewEmail(raw string) (Email, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" || len(normalized) > maxEmailLength {
		return "", ErrInvalidEmail
	}
	if !emailPattern.MatchString(normalized) {
		return "", ErrInvalidEmail
	}
	return Email(normalized), nil
}

func (e Email) String() string {
	return string(e)
}

// LocalPart returns everything before the "@".
func (e Email) LocalPart() string {
	at := strings.LastIndex(string(e), "@")
	if at < 0 {
		return string(e)
	}
	return string(e)[:at]
}

// Domain returns everything after the "@".
func (e Email) Domain() string {
	at := strings.LastIndex(string(e), "@")
	if at < 0 {
		return ""
	}
	return string(e)[at+1:]
}

// IsCorporateEmail reports whether the domain is NOT one of the known
// free-mail providers. The name is historical: the check is a denylist miss,
// not a positive corporate-domain lookup, so unlisted consumer domains also
// return true.
func (e Email) IsCorporateEmail() bool {
	_, listed := freeMailDomains[e.Domain()]
	return !listed
}
