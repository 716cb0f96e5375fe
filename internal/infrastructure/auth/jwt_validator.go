package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"jan-chat/internal/config"
)

// PrincipalClaims represent the subset of JWT claims we care about.
type PrincipalClaims struct {
	Subject   string
	Issuer    string
	Audience  []string
	Email     string
	Role      string
	ExpiresAt time.Time
	IssuedAt  time.Time
	TokenID   string
}

// TokenValidator validates bearer tokens either with a shared HS256 secret or
// against a JWKS endpoint.
type TokenValidator struct {
	issuer    string
	audience  string
	clockSkew time.Duration
	methods   []string
	logger    zerolog.Logger

	secret  []byte
	jwksURL string
	jwks    atomic.Pointer[keyfunc.JWKS]
	lastErr atomic.Value // stores lastErrWrap
}

// lastErrWrap is a sentinel wrapper to avoid storing bare nil in atomic.Value.
type lastErrWrap struct{ Err error }

var ErrInvalidToken = errors.New("invalid token")

const (
	jwksInitialRetryInterval   = time.Second
	jwksInitialRetryMaxBackoff = 10 * time.Second
	jwksInitialRetryTimeout    = 2 * time.Minute
)

// NewValidator builds the validator selected by configuration. It returns nil
// when neither JWT_SECRET nor JWKS_URL is set.
func NewValidator(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*TokenValidator, error) {
	switch {
	case cfg.JWTSecret != "":
		return NewSecretValidator(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTClockSkew, logger)
	case cfg.JWKSURL != "":
		return NewJWKSValidator(ctx, cfg.JWKSURL, cfg.JWTIssuer, cfg.JWTAudience, cfg.RefreshJWKSInterval, cfg.JWTClockSkew, logger)
	default:
		logger.Warn().Msg("no JWT_SECRET or JWKS_URL configured, authenticated routes will reject every request")
		return nil, nil
	}
}

// NewSecretValidator validates HS256 tokens signed with a shared secret.
func NewSecretValidator(secret, issuer, audience string, clockSkew time.Duration, logger zerolog.Logger) (*TokenValidator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	v := &TokenValidator{
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
		methods:   []string{"HS256"},
		logger:    logger,
		secret:    []byte(secret),
	}
	v.lastErr.Store(lastErrWrap{Err: nil})
	return v, nil
}

// NewJWKSValidator initialises JWKS fetching and returns a validator.
func NewJWKSValidator(ctx context.Context, jwksURL, issuer, audience string, refreshEvery, clockSkew time.Duration, logger zerolog.Logger) (*TokenValidator, error) {
	if jwksURL == "" {
		return nil, errors.New("jwks url is required")
	}
	v := &TokenValidator{
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
		methods:   []string{"RS256", "ES256"},
		logger:    logger,
		jwksURL:   jwksURL,
	}
	v.lastErr.Store(lastErrWrap{Err: nil})

	if err := v.initJWKS(ctx, refreshEvery); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *TokenValidator) initJWKS(ctx context.Context, refreshEvery time.Duration) error {
	options := keyfunc.Options{
		Ctx: ctx,
		RefreshErrorHandler: func(err error) {
			v.lastErr.Store(lastErrWrap{Err: err})
			if err != nil {
				v.logger.Error().Err(err).Str("jwks_url", v.jwksURL).Msg("jwks refresh failed")
			}
		},
		RefreshInterval:   refreshEvery,
		RefreshUnknownKID: true,
	}

	backoff := jwksInitialRetryInterval
	deadline := time.Now().Add(jwksInitialRetryTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	for attempt := 1; ; attempt++ {
		jwks, err := keyfunc.Get(v.jwksURL, options)
		if err == nil {
			v.lastErr.Store(lastErrWrap{Err: nil})
			v.jwks.Store(jwks)
			return nil
		}

		v.logger.Warn().
			Err(err).
			Str("jwks_url", v.jwksURL).
			Int("attempt", attempt).
			Msg("initial jwks fetch failed, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("fetch jwks: %w", ctx.Err())
		case <-time.After(backoff):
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("fetch jwks: %w", err)
		}
		backoff = min(backoff*2, jwksInitialRetryMaxBackoff)
	}
}

func (v *TokenValidator) keyFunc(token *jwt.Token) (any, error) {
	if v.secret != nil {
		return v.secret, nil
	}
	jwks := v.jwks.Load()
	if jwks == nil {
		return nil, errors.New("jwks not initialised")
	}
	return jwks.Keyfunc(token)
}

// Validate parses and validates the given JWT returning principal claims.
func (v *TokenValidator) Validate(_ context.Context, rawToken string) (*PrincipalClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		options = append(options, jwt.WithAudience(v.audience))
	}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.NewParser(options...).ParseWithClaims(rawToken, jwt.MapClaims{}, v.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !token.Valid || !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := mapClaims.GetSubject()
	if sub == "" {
		return nil, fmt.Errorf("%w: sub claim missing", ErrInvalidToken)
	}
	iss, _ := mapClaims.GetIssuer()
	aud, _ := mapClaims.GetAudience()

	claims := &PrincipalClaims{
		Subject:  sub,
		Issuer:   iss,
		Audience: aud,
		Email:    claimString(mapClaims["email"]),
		Role:     claimString(mapClaims["role"]),
		TokenID:  claimString(mapClaims["jti"]),
	}
	if exp, _ := mapClaims.GetExpirationTime(); exp != nil {
		claims.ExpiresAt = exp.UTC()
	}
	if iat, _ := mapClaims.GetIssuedAt(); iat != nil {
		claims.IssuedAt = iat.UTC()
	}
	return claims, nil
}

// Ready indicates whether the validator can verify signatures.
func (v *TokenValidator) Ready() bool {
	if v.secret != nil {
		return true
	}
	if v.jwks.Load() == nil {
		return false
	}
	if val := v.lastErr.Load(); val != nil {
		if wrap, ok := val.(lastErrWrap); ok && wrap.Err != nil {
			return false
		}
	}
	return true
}

func claimString(value any) string {
	if str, ok := value.(string); ok {
		return str
	}
	return ""
}
