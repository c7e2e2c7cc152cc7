package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/guardian"
)

var (
	appJWTConfig = middleware.JWTConfig{
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "guardianToken",
		Claims:        new(Claims),
	}
	contextGuardianKey = "guardian"

	appName                   string
	jwtExpirationDelta        time.Duration
	jwtRefreshExpirationDelta time.Duration
)

// ConfigureAuth primes the JWT middleware with the app secrets and expiration
// deltas; must be called once at startup.
func ConfigureAuth(conf *core.Config) echo.MiddlewareFunc {
	appJWTConfig.SigningKey = []byte(conf.SecretKey)
	appName = conf.AppName
	jwtExpirationDelta = conf.Server.JWTExpirationDelta
	jwtRefreshExpirationDelta = conf.Server.JWTRefreshExpirationDelta
	return middleware.JWTWithConfig(appJWTConfig)
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	IsAdmin      bool   `json:"is_admin,omitempty"`
	Role         string `json:"role,omitempty"`
}

func GetGuardianClaims(grd guardian.Guardian, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    appName,
			Subject:   grd.ID,
			Audience:  "Chute Inicial",
			ExpiresAt: now.Add(jwtExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Name:         grd.Name,
		Email:        grd.Email,
		IsAdmin:      grd.IsAdmin(),
		Role:         grd.Role,
	}
	return claims
}

func authenticate(ctx context.Context, email, pwd string, svc *guardian.Service) (*Claims, error) {
	grd, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == guardian.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding guardian by email")
	}
	if err = grd.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !grd.IsActive {
		return nil, errAccountDeactivated
	}
	grd, err = svc.SetLastLogin(ctx, grd)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return GetGuardianClaims(grd), nil
}

// GenerateToken generates a signed JWT token string representing the guardian Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextGuardian(ctx echo.Context, svc *guardian.Service, clms ...Claims) (guardian.Guardian, error) {
	if grd, ok := ctx.Get(contextGuardianKey).(guardian.Guardian); ok {
		return grd, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return guardian.Guardian{}, errors.Wrap(err, "getting context claims")
		}
	}

	grd, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return guardian.Guardian{}, errors.Wrap(err, "finding guardian by ID")
	}
	ctx.Set(contextGuardianKey, grd)
	return grd, nil
}

func refreshToken(ctx echo.Context, svc *guardian.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	grd, err := getContextGuardian(ctx, svc, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context guardian")
	}

	// check if guardian is still active
	if !grd.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(jwtRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	newClaims := GetGuardianClaims(grd, claims.OrigIssuedAt)
	token, err := GenerateToken(newClaims)
	return token, errors.Wrap(err, "generating token")
}
