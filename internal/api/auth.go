package api

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/jwtauth"
	"github.com/tendant/fragments/pkg/fragments"
	"golang.org/x/crypto/bcrypt"
)

type contextKey struct{ name string }

var principalKey = &contextKey{"principal"}

// principalFrom returns the authenticated principal attached by the auth
// middleware, or nil for an unauthenticated request.
func principalFrom(ctx context.Context) fragments.Principal {
	p, _ := ctx.Value(principalKey).(fragments.Principal)
	return p
}

func withPrincipal(ctx context.Context, p fragments.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// BasicAuth returns middleware enforcing HTTP Basic auth against an htpasswd
// file. Only bcrypt entries are accepted; the verified username becomes the
// request's SimplePrincipal.
func BasicAuth(htpasswdFile string) (func(http.Handler) http.Handler, error) {
	users, err := loadHtpasswd(htpasswdFile)
	if err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, hasAuth := r.BasicAuth()
			hash, known := users[username]
			if !hasAuth || !known || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
				w.Header().Set("WWW-Authenticate", `Basic realm="fragments"`)
				writeError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			ctx := withPrincipal(r.Context(), fragments.SimplePrincipal(username))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}, nil
}

func loadHtpasswd(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open htpasswd file: %w", err)
	}
	defer file.Close()

	users := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		username, hash, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("malformed htpasswd line for %q", username)
		}
		if !strings.HasPrefix(hash, "$2") {
			return nil, fmt.Errorf("unsupported htpasswd hash for %q: only bcrypt entries are supported", username)
		}
		users[username] = hash
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read htpasswd file: %w", err)
	}
	return users, nil
}

// JWTAuth returns middleware verifying HS256 bearer tokens. Verified claims
// become the request's ClaimsPrincipal: `sub` is the primary identifier,
// `email` the fallback.
func JWTAuth(secret string) []func(http.Handler) http.Handler {
	tokenAuth := jwtauth.New("HS256", []byte(secret), nil)

	attach := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				writeError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			principal := fragments.ClaimsPrincipal{}
			if sub, ok := claims["sub"].(string); ok {
				principal.Subject = sub
			}
			if email, ok := claims["email"].(string); ok {
				principal.Email = email
			}

			ctx := withPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	return []func(http.Handler) http.Handler{
		jwtauth.Verifier(tokenAuth),
		attach,
	}
}
