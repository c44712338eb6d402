package auth

import (
	"encoding/base64"
	"errors"
	"strings"
)

// Authorization schemes understood by the Nadeo services.
const (
	SchemeBasic = "Basic"
	SchemeUbi   = "ubi_v1"
	SchemeNadeo = "nadeo_v1"
)

var errInvalidAuthorization = errors.New("invalid authorization header")

// EncodeCredential builds a Basic authorization value for identifier:secret.
func EncodeCredential(identifier, secret string) string {
	raw := identifier + ":" + secret
	return SchemeBasic + " " + base64.StdEncoding.EncodeToString([]byte(raw))
}

// DecodeCredential reverses EncodeCredential. The secret may contain colons.
func DecodeCredential(header string) (string, string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], SchemeBasic) {
		return "", "", errInvalidAuthorization
	}
	decoded, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", "", errInvalidAuthorization
	}
	identifier, secret, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", errInvalidAuthorization
	}
	return identifier, secret, nil
}

// TokenHeader formats "<scheme> t=<token>".
func TokenHeader(scheme, token string) string {
	return scheme + " t=" + token
}

// ParseTokenHeader extracts the token from a "<scheme> t=<token>" value.
func ParseTokenHeader(header, scheme string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != scheme {
		return "", errInvalidAuthorization
	}
	token, ok := strings.CutPrefix(parts[1], "t=")
	if !ok || token == "" {
		return "", errInvalidAuthorization
	}
	return token, nil
}
