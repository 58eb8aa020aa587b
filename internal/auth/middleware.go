package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gardenjournal/internal/metrics"
	"gardenjournal/internal/roster"
)

const (
	// CookieName carries the session token.
	CookieName = "garden_session"

	studentKey = "student"
	claimsKey  = "claims"
)

// Sessions issues, checks and ends cookie-based student sessions.
type Sessions struct {
	key       string
	issuer    string
	ttl       time.Duration
	revoker   Revoker
	secure    bool
	loginPath string
}

// NewSessions creates a session manager. secure marks cookies HTTPS-only.
func NewSessions(key, issuer string, ttl time.Duration, revoker Revoker, secure bool) *Sessions {
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	return &Sessions{
		key:       key,
		issuer:    issuer,
		ttl:       ttl,
		revoker:   revoker,
		secure:    secure,
		loginPath: "/login",
	}
}

// Start signs a token for the student and sets the session cookie.
func (s *Sessions) Start(c *gin.Context, st roster.Student) error {
	tok, err := Issue(st.ID, st.Name, s.issuer, s.key, s.ttl)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, tok.Value, int(s.ttl.Seconds()), "/", "", s.secure, true)
	return nil
}

// End revokes the current token, if any, and clears the cookie.
func (s *Sessions) End(c *gin.Context) error {
	defer func() {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieName, "", -1, "/", "", s.secure, true)
	}()
	raw, err := c.Cookie(CookieName)
	if err != nil || raw == "" {
		return nil
	}
	claims, err := Parse(raw, s.key, s.issuer)
	if err != nil {
		return nil
	}
	return s.revoker.Revoke(c.Request.Context(), claims.ID, claims.ExpiresAt.Time)
}

// Current returns the student of a valid, unrevoked session cookie.
// When the revocation store cannot be reached, a token with a valid signature
// and expiry is accepted, the same way roster reads fall through to the sheet.
func (s *Sessions) Current(c *gin.Context) (roster.Student, Claims, bool) {
	raw, err := c.Cookie(CookieName)
	if err != nil || raw == "" {
		return roster.Student{}, Claims{}, false
	}
	claims, err := Parse(raw, s.key, s.issuer)
	if err != nil {
		return roster.Student{}, Claims{}, false
	}
	revoked, err := s.revoker.Revoked(c.Request.Context(), claims.ID)
	if err != nil {
		metrics.RevocationErrors.Inc()
		zap.L().Warn("session revocation check failed, accepting signed token",
			zap.String("student_id", claims.Subject),
			zap.Error(err),
		)
		revoked = false
	}
	if revoked {
		return roster.Student{}, Claims{}, false
	}
	return roster.Student{ID: claims.Subject, Name: claims.Name}, claims, true
}

// Require redirects requests without a valid session to the login page.
func (s *Sessions) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		st, claims, ok := s.Current(c)
		if !ok {
			c.Redirect(http.StatusSeeOther, s.loginPath)
			c.Abort()
			return
		}
		c.Set(studentKey, st)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// CurrentStudent returns the student set by Require.
func CurrentStudent(c *gin.Context) (roster.Student, bool) {
	v, ok := c.Get(studentKey)
	if !ok {
		return roster.Student{}, false
	}
	st, ok := v.(roster.Student)
	return st, ok
}
