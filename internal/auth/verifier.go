package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/tecnoshop/checkout-service/pkg/apperror"
)

type Identity struct {
	UserID string
}

// Verifier turns an opaque session credential into a caller identity.
type Verifier interface {
	Verify(ctx context.Context, credential string) (Identity, error)
}

// JWTVerifier validates HS256 session tokens whose "id" claim carries the
// user id, the shape issued by the login endpoint.
type JWTVerifier struct {
	secret []byte
	now    func() time.Time
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), now: time.Now}
}

func (v *JWTVerifier) Verify(ctx context.Context, credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, apperror.Unauthenticated("session credential is required")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return Identity{}, apperror.InvalidCredential(err)
	}

	userID, _ := claims["id"].(string)
	if userID == "" {
		userID, _ = claims["sub"].(string)
	}
	if userID == "" {
		return Identity{}, apperror.InvalidCredential(errors.New("token carries no user id"))
	}

	return Identity{UserID: userID}, nil
}

// Issue signs a session token for userID valid for ttl.
func (v *JWTVerifier) Issue(userID string, ttl time.Duration) (string, error) {
	now := v.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	})
	return token.SignedString(v.secret)
}
