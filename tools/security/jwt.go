package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Options controls signing parameters and TTL.
type Options struct {
	Secret []byte        // HMAC secret (from ENV/KMS in production)
	Alg    string        // HS256/HS384/HS512 (default HS256)
	TTL    time.Duration // token lifetime (default 2h)
}

func DefaultOptions(secret []byte) Options {
	return Options{Secret: secret, Alg: "HS256", TTL: 2 * time.Hour}
}

// Claims is the identity the gateway attaches to an authenticated session.
type Claims struct {
	UserID    string
	Username  string
	AvatarURL string
	ExpireAt  time.Time
}

// Generate signs a token for userID. Used by the account service and by tests;
// the gateway itself only verifies.
func Generate(opts Options, userID, username, avatarURL string) (string, time.Time, error) {
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return "", time.Time{}, err
	}
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	now := time.Now()
	exp := now.Add(opts.TTL)

	claims := jwtlib.MapClaims{
		"sub":  userID,
		"name": username,
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"exp":  exp.Unix(),
	}
	if avatarURL != "" {
		claims["avatar"] = avatarURL
	}

	tok := jwtlib.NewWithClaims(method, claims)
	signed, err := tok.SignedString(opts.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature and expiry and returns the decoded identity.
// Any failure mode (malformed, bad signature, expired, missing sub) comes
// back as an error; callers map it to the stable handshake rejection.
func Verify(opts Options, token string) (*Claims, error) {
	if _, err := signingMethod(opts.Alg); err != nil {
		return nil, err
	}
	parsed, err := jwtlib.Parse(token, func(t *jwtlib.Token) (interface{}, error) {
		// HMAC family only
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected alg: %v", t.Header["alg"])
		}
		return opts.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	mc, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("claims type mismatch")
	}

	sub, _ := mc["sub"].(string)
	if sub == "" {
		return nil, errors.New("missing sub claim")
	}
	out := &Claims{UserID: sub}
	if v, ok := mc["name"].(string); ok {
		out.Username = v
	}
	if v, ok := mc["avatar"].(string); ok {
		out.AvatarURL = v
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		out.ExpireAt = exp.Time
	}
	return out, nil
}

func signingMethod(alg string) (jwtlib.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwtlib.SigningMethodHS256, nil
	case "HS384":
		return jwtlib.SigningMethodHS384, nil
	case "HS512":
		return jwtlib.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported alg: %s (use HS256/HS384/HS512)", alg)
	}
}
