// Package auth derives caller identity and tenant scope from bearer
// credentials and enforces cross-tenant isolation.
package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/nexzo/platform/gomicro/apperror"
	"github.com/nexzo/platform/gomicro/jwtutil"
)

// Context is the resolved identity of a caller.
// An empty TenantID means no tenant is associated with the request.
type Context struct {
	Subject  string   `json:"subject"`
	TenantID string   `json:"tenantId,omitempty"`
	Roles    []string `json:"roles"`
	RawToken string   `json:"-"`
}

// HasTenant reports whether a tenant was resolved for the caller
func (c Context) HasTenant() bool {
	return c.TenantID != ""
}

// HasRole reports whether the caller carries the given role
func (c Context) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Decoded is the result of a single decoding strategy
type Decoded struct {
	Context Context
	OK      bool
}

// Decoder is one credential decoding strategy
type Decoder func(raw string) Decoded

func decoded(ctx Context) Decoded {
	return Decoded{Context: ctx, OK: true}
}

var notDecoded = Decoded{}

// Resolver turns raw bearer credentials into a caller Context
type Resolver struct {
	decoders []Decoder
}

// Option configures a Resolver
type Option func(*Resolver)

// WithJWTVerifier tries signed credentials before the other strategies.
// A disabled verifier is ignored.
func WithJWTVerifier(verifier *jwtutil.JWTUtil) Option {
	return func(r *Resolver) {
		if verifier.Enabled() {
			r.decoders = append([]Decoder{SignedTokenDecoder(verifier)}, r.decoders...)
		}
	}
}

// NewResolver builds the decoder pipeline: structured token, then
// "tenant:subject", then opaque subject.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		decoders: []Decoder{DecodeStructured, DecodeTenantPair, DecodeOpaque},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Decode runs the strategies in order and returns the first success.
// It never fails: the last strategy accepts any input.
func (r *Resolver) Decode(raw string) Context {
	for _, decode := range r.decoders {
		if result := decode(raw); result.OK {
			return result.Context
		}
	}
	return Context{Subject: raw, Roles: []string{}, RawToken: raw}
}

// Resolve decodes the credential and applies tenant precedence:
// the decoded tenant wins, then the tenant header.
func (r *Resolver) Resolve(raw, tenantHeader string) Context {
	ctx := r.Decode(raw)
	if !ctx.HasTenant() {
		ctx.TenantID = tenantHeader
	}
	return ctx
}

// ParseBearer extracts the token from an Authorization header value.
// Exactly one space separates the scheme from a token without whitespace.
func ParseBearer(header string) (string, error) {
	scheme, token, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "bearer") || token == "" || strings.ContainsAny(token, " \t\r\n") {
		return "", apperror.Unauthorized("Invalid authorization header")
	}
	return token, nil
}

type structuredToken struct {
	Subject  string   `json:"subject"`
	Sub      string   `json:"sub"`
	TenantID string   `json:"tenantId"`
	Roles    []string `json:"roles"`
}

// DecodeStructured accepts a base64url-encoded JSON object carrying a
// subject (or legacy "sub"), an optional tenantId and roles.
func DecodeStructured(raw string) Decoded {
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
	if err != nil {
		return notDecoded
	}

	var token structuredToken
	if err := json.Unmarshal(payload, &token); err != nil {
		return notDecoded
	}

	subject := token.Subject
	if subject == "" {
		subject = token.Sub
	}
	if subject == "" {
		return notDecoded
	}

	return decoded(Context{
		Subject:  subject,
		TenantID: token.TenantID,
		Roles:    uniqueRoles(token.Roles),
		RawToken: raw,
	})
}

// DecodeTenantPair splits "tenant:subject" on the first colon
func DecodeTenantPair(raw string) Decoded {
	tenant, subject, found := strings.Cut(raw, ":")
	if !found {
		return notDecoded
	}
	return decoded(Context{
		Subject:  subject,
		TenantID: tenant,
		Roles:    []string{},
		RawToken: raw,
	})
}

// DecodeOpaque treats the whole credential as the subject
func DecodeOpaque(raw string) Decoded {
	return decoded(Context{Subject: raw, Roles: []string{}, RawToken: raw})
}

// SignedTokenDecoder accepts HS256 tokens verified with the configured key
func SignedTokenDecoder(verifier *jwtutil.JWTUtil) Decoder {
	return func(raw string) Decoded {
		claims, err := verifier.ValidateToken(raw)
		if err != nil {
			return notDecoded
		}
		return decoded(Context{
			Subject:  claims.Subject,
			TenantID: claims.TenantID,
			Roles:    uniqueRoles(claims.Roles),
			RawToken: raw,
		})
	}
}

// uniqueRoles keeps the first occurrence of each role, in order
func uniqueRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}
