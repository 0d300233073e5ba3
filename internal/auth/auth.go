package auth

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/aircargo/internal/booking"
	"github.com/dharmasatrya/aircargo/internal/models"
)

const (
	userIDKey = "userID"
	tokenKey  = "token"
)

var ErrNoCredential = errors.New("request is not authenticated")

type Claims struct {
	UserID string `json:"userID"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWT verifies the bearer token and stores the user id and the raw token on
// the context. The raw token is forwarded to the cargo API unchanged.
func JWT(secret string) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
		SigningKey: []byte(secret),
		SuccessHandler: func(c echo.Context) {
			token := c.Get("user").(*jwt.Token)
			claims := token.Claims.(*Claims)

			c.Set(userIDKey, claims.UserID)
			c.Set(tokenKey, token.Raw)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			c.Logger().Errorf("JWT error: %v", err)

			msg := "Invalid or expired token"
			switch {
			case errors.Is(err, echojwt.ErrJWTMissing):
				msg = "Missing or malformed token"
			case errors.Is(err, jwt.ErrTokenMalformed):
				msg = "Token is malformed"
			case errors.Is(err, jwt.ErrTokenExpired):
				msg = "Token has expired"
			case errors.Is(err, jwt.ErrTokenSignatureInvalid):
				msg = "Invalid token signature"
			}
			return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "unauthorized",
				Message: msg,
				Code:    http.StatusUnauthorized,
			})
		},
	})
}

// CredentialFrom returns the identity JWT stored on c.
func CredentialFrom(c echo.Context) (booking.Credential, error) {
	userID, _ := c.Get(userIDKey).(string)
	token, _ := c.Get(tokenKey).(string)
	if userID == "" || token == "" {
		return booking.Credential{}, ErrNoCredential
	}
	return booking.Credential{UserID: userID, Token: token}, nil
}

// Sign issues a token for userID. Used by tests and local tooling; production
// tokens come from the identity provider.
func Sign(secret, userID string, claims jwt.RegisteredClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:           userID,
		RegisteredClaims: claims,
	})
	return token.SignedString([]byte(secret))
}
