// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides the gin middleware of the tool gateway.
//
// # Authentication Flow
//
//	Request
//	   │
//	   ▼
//	BearerAuth
//	   │
//	   ├─► no token configured ─► Handler
//	   │
//	   ├─► Extract token from "Authorization: Bearer <token>"
//	   │
//	   └─► constant-time compare ─► Handler or 401
package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mdwillman/avalogica-weather-mcp/pkg/secrets"
)

// =============================================================================
// Auth Middleware
// =============================================================================

// BearerAuth rejects requests whose bearer token does not match token.
//
// # Description
//
// With a nil or empty token the middleware lets every request through, which
// is the local-development default. Otherwise the Authorization header must
// carry exactly the configured token.
//
// # Inputs
//
//   - token: Expected token. May be nil.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware ready for a route group.
//
// # Examples
//
//	mcp := router.Group("/mcp")
//	mcp.Use(middleware.BearerAuth(cfg.AuthToken))
//
// # Thread Safety
//
// Thread-safe. The returned middleware can be used concurrently.
func BearerAuth(token *secrets.Secret) gin.HandlerFunc {
	return bearerAuth(token)
}

// sealedToken is the part of secrets.Secret the middleware needs.
type sealedToken interface {
	IsZero() bool
	Reveal(fn func(plaintext string) error) error
}

func bearerAuth(token sealedToken) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token.IsZero() {
			c.Next()
			return
		}

		presented := extractBearerToken(c)
		matched := false
		if presented != "" {
			err := token.Reveal(func(expected string) error {
				matched = subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) == 1
				return nil
			})
			if err != nil {
				// Fails closed. A sealed token that cannot be opened (for
				// example after secrets.Purge) is a server fault, not a bad
				// credential.
				slog.Warn("auth token could not be opened",
					"path", c.Request.URL.Path,
					"error", err,
				)
			}
		}
		if !matched {
			c.Header("WWW-Authenticate", `Bearer realm="avalogica"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}

		c.Next()
	}
}

// extractBearerToken returns the token from "Authorization: Bearer <token>",
// or "" when the header is missing or malformed. The scheme is
// case-insensitive per RFC 7235.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
