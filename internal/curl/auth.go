package curl

import (
	"encoding/base64"
	"strings"
)

// Auth holds basic auth credentials.
type Auth struct {
	User     string
	Password string
	// Force sends the Authorization header up front instead of waiting for
	// a 401 challenge. Needed for servers that never challenge.
	Force bool
	// Headers are sent together with the credentials.
	Headers map[string]string
}

// Header returns the basic Authorization header.
func (a *Auth) Header() map[string]string {
	token := base64.StdEncoding.EncodeToString([]byte(a.User + ":" + a.Password))
	return map[string]string{"Authorization": "Basic " + token}
}

func (a *Auth) headers() map[string]string {
	if !a.Force {
		return a.Headers
	}
	return a.challengeHeaders()
}

func (a *Auth) challengeHeaders() map[string]string {
	ret := make(map[string]string, len(a.Headers)+1)
	for k, v := range a.Headers {
		ret[k] = v
	}
	for k, v := range a.Header() {
		ret[k] = v
	}
	return ret
}

func isBasicChallenge(values []string) bool {
	for _, v := range values {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(v)), "basic") {
			return true
		}
	}
	return false
}
