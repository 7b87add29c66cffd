// Package visitor issues and reads the per-browser visitor identifier. The
// identifier is opaque and carries no authentication weight: any client can
// send any value.
package visitor

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"regexp"
	"time"
)

// CookieName is the client-side key holding the identifier
const CookieName = "visitor_id"

// cookieMaxAge keeps the identifier for a year of inactivity
const cookieMaxAge = 365 * 24 * 60 * 60

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

var idPattern = regexp.MustCompile(`^visitor_[0-9]{1,16}_[0-9a-z]{1,16}$`)

// RandomString returns n characters drawn from [0-9a-z]
func RandomString(n int) string {
	max := big.NewInt(int64(len(base36)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(fmt.Sprintf("visitor: reading random bytes: %v", err))
		}
		b[i] = base36[idx.Int64()]
	}
	return string(b)
}

// NewID builds visitor_<unix millis>_<9 random base36 chars>
func NewID(now time.Time) string {
	return fmt.Sprintf("visitor_%d_%s", now.UnixMilli(), RandomString(9))
}

// Valid reports whether id looks like an identifier issued by NewID
func Valid(id string) bool {
	return idPattern.MatchString(id)
}

// FromRequest returns the identifier carried by the request, if any
func FromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || !Valid(c.Value) {
		return "", false
	}
	return c.Value, true
}

// Options controls the cookie written by GetOrCreate
type Options struct {
	Secure bool
	Now    func() time.Time
}

// GetOrCreate returns the request's identifier, issuing and persisting a new
// one when the request carries none. The same browser keeps its identifier
// across page loads; nothing makes it unique across browsers.
func GetOrCreate(w http.ResponseWriter, r *http.Request, opts Options) string {
	if id, ok := FromRequest(r); ok {
		return id
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	id := NewID(now())
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
