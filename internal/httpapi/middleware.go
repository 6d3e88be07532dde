package httpapi

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	auth "github.com/strategiz/authcore"
)

type contextKey string

const (
	authorizationHeader = "Authorization"
	accessTokenCookie   = "ACCESSTOKEN"
	forwardedForHeader  = "X-Forwarded-For"
)

const (
	userIDContextKey contextKey = "userID"
	tokenContextKey  contextKey = "token"
)

// ThrottleEveryOneSec allows a single request per second for
// an IP address.
const ThrottleEveryOneSec = 1

// RequireAuth validates the access token of a request and rejects
// sessions whose ACR does not satisfy minACR. The token is read from
// the Authorization header, falling back to the access token cookie.
func RequireAuth(jsonHandler JSONAPIHandler, tokenSvc auth.TokenService, minACR auth.ACR) JSONAPIHandler {
	return func(w http.ResponseWriter, r *http.Request) (interface{}, error) {
		ctx := r.Context()

		signedToken := SignedToken(r)
		if signedToken == "" {
			return nil, auth.ErrInvalidToken("user is not authenticated")
		}

		token, err := tokenSvc.Validate(ctx, signedToken)
		if err != nil {
			return nil, err
		}

		if !token.ACR.Satisfies(minACR) {
			return nil, auth.ErrUnauthorized(
				fmt.Sprintf("session must be upgraded to ACR %s", minACR),
			)
		}

		ctx = context.WithValue(ctx, userIDContextKey, token.UserID)
		ctx = context.WithValue(ctx, tokenContextKey, token)
		r = r.WithContext(ctx)

		return jsonHandler(w, r)
	}
}

// RateLimitMiddleware throttles requests by IP address.
func RateLimitMiddleware(jsonHandler JSONAPIHandler, lmt *limiter.Limiter) JSONAPIHandler {
	return func(w http.ResponseWriter, r *http.Request) (interface{}, error) {
		if httpErr := tollbooth.LimitByRequest(lmt, w, r); httpErr != nil {
			return nil, auth.ErrThrottle("requests are throttled, try again later")
		}

		return jsonHandler(w, r)
	}
}

// LimiterMiddleware applies a Redis backed Limiter to a request.
func LimiterMiddleware(jsonHandler JSONAPIHandler, l Limiter) JSONAPIHandler {
	return func(w http.ResponseWriter, r *http.Request) (interface{}, error) {
		if err := l.RateLimit(r); err != nil {
			return nil, err
		}

		return jsonHandler(w, r)
	}
}

// ErrorLoggingMiddleware logs any errors that are returned before
// being parsed to an HTTP response. Domain errors are logged at info
// level; anything else is unexpected.
func ErrorLoggingMiddleware(jsonHandler JSONAPIHandler, source string, logger log.Logger) JSONAPIHandler {
	return func(w http.ResponseWriter, r *http.Request) (interface{}, error) {
		response, err := jsonHandler(w, r)
		if err == nil {
			return response, nil
		}

		lvl := level.Error
		if auth.DomainError(err) != nil {
			lvl = level.Info
		}
		lvl(logger).Log(
			"user_id", GetUserID(r),
			"source", source,
			"error", err.Error(),
			"stack_trace", fmt.Sprintf("%+v", err),
		)
		return response, err
	}
}

// SignedToken returns the access token presented by a request.
func SignedToken(r *http.Request) string {
	signedToken := r.Header.Get(authorizationHeader)
	if signedToken != "" {
		return signedToken
	}

	if cookie, err := r.Cookie(accessTokenCookie); err == nil {
		return cookie.Value
	}

	return ""
}

// GetUserID retrieves the authenticated User ID from context.
func GetUserID(r *http.Request) string {
	userID, ok := r.Context().Value(userIDContextKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// GetToken retrieves the validated access token from context.
func GetToken(r *http.Request) *auth.Token {
	token, ok := r.Context().Value(tokenContextKey).(*auth.Token)
	if !ok {
		return nil
	}
	return token
}

// GetIP returns the client IP address of a request.
func GetIP(r *http.Request) string {
	if forwarded := r.Header.Get(forwardedForHeader); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
