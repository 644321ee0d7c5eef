package rest

import (
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/memorylocks/internal/common"
	"github.com/dmitrijs2005/memorylocks/internal/ratelimit"
	"github.com/dmitrijs2005/memorylocks/internal/server/auth"
)

const (
	requestIDKey  = "requestid"
	subjectKey    = "subject"
	credentialKey = "credential"
)

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// verifiedCredential returns the API key or bearer token accepted by
// requireAuth. It is empty on public routes.
func verifiedCredential(c *fiber.Ctx) string {
	v, _ := c.Locals(credentialKey).(string)
	return v
}

// logRequests logs every request and records its metrics. Handler errors
// are rendered here so the logged status is the one sent.
func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()

	err := c.Next()
	if err != nil {
		if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	status := c.Response().StatusCode()
	elapsed := time.Since(start)

	s.metrics.ObserveRequest(c.Method(), c.Route().Path, status, elapsed)
	s.logger.Info(c.UserContext(), "request",
		"request_id", requestID(c),
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"latency", elapsed.String(),
		"ip", c.IP(),
	)
	return nil
}

// requireAuth accepts the shared key in X-API-Key, or a service token signed
// with it as a bearer token.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	if key := c.Get(common.APIKeyHeaderName); key != "" {
		if subtle.ConstantTimeCompare([]byte(key), s.apiKey) != 1 {
			return fmt.Errorf("%w: invalid api key", common.ErrorUnauthorized)
		}
		c.Locals(credentialKey, key)
		return c.Next()
	}

	token, found := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return fmt.Errorf("%w: missing credentials", common.ErrorUnauthorized)
	}

	token = strings.TrimSpace(token)
	subject, err := auth.ParseToken(token, s.apiKey)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}
	c.Locals(subjectKey, subject)
	c.Locals(credentialKey, token)
	return c.Next()
}

// limit applies the named rate limit policy. Callers are keyed by their
// verified credential, or by source address when there is none. Unknown
// policies do not limit.
func (s *Server) limit(policy string) fiber.Handler {
	l := s.limiters.Get(policy)
	if l == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return func(c *fiber.Ctx) error {
		res := l.Allow(ratelimit.ClientKey(verifiedCredential(c), c.IP()))

		c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			s.metrics.RateLimited(policy)
			retry := res.RetryAfter(time.Now())
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retry/time.Second)))
			return fmt.Errorf("%s policy: %w", policy, common.ErrorRateLimited)
		}
		return c.Next()
	}
}
