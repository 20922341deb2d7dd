package session

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/playlist-viewer/internal/shared"
	"golang.org/x/oauth2"
)

// TokenFromJWT wraps a backend-issued JWT in an [oauth2.Token], reading its exp claim for the expiry.
//
// The signature is not verified here; the backend does that on every forwarded request.
func TokenFromJWT(jwt string) (*oauth2.Token, error) {
	jwt = strings.TrimSpace(jwt)
	parts := strings.Split(jwt, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: malformed jwt", shared.ErrInvalidInput)
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, fmt.Errorf("%w: jwt payload: %v", shared.ErrInvalidInput, err)
	}

	var claims struct {
		Exp json.Number `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: jwt claims: %v", shared.ErrInvalidInput, err)
	}

	token := &oauth2.Token{AccessToken: jwt, TokenType: "Bearer"}
	if claims.Exp != "" {
		exp, err := claims.Exp.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: jwt exp: %v", shared.ErrInvalidInput, err)
		}
		token.Expiry = time.Unix(int64(exp), 0).UTC()
	}

	return token, nil
}
