package auth

import (
	"strings"

	"bookstore/apperror"
)

// BearerToken pulls the token out of an Authorization header. A bare token without the
// Bearer prefix is accepted too.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", apperror.ErrAuthRequired
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		header = strings.TrimSpace(header[7:])
	}
	if header == "" || strings.EqualFold(header, "Bearer") {
		return "", apperror.ErrAuthRequired
	}
	return header, nil
}

// RequireAdmin is the role stage of the admin gate. Token verification happens before it.
func RequireAdmin(claims *Claims) error {
	if claims == nil {
		return apperror.ErrAuthRequired
	}
	if !claims.IsAdmin() {
		return apperror.ErrForbidden
	}
	return nil
}
