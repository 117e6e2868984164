package middleware

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/akolanti/DocAssist/internal/adapter/utils"
	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/handlers"
	"github.com/akolanti/DocAssist/pkg/logger_i"
)

const userIdHeader = "X-User-Id"

func injectTrace(re requestResponseStruct) requestResponseStruct {
	req := re.req
	if req == nil {
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusBadRequest,
			errorMessage: "request is empty",
		}
		return re
	}
	trace := req.Header.Get("X-Trace-Id")
	if trace == "" {
		trace = utils.GetNewUUID()
	}
	re.logger = re.logger.With("traceId", trace)
	ctx := context.WithValue(req.Context(), config.TRACE_ID_KEY, trace)
	req.Header.Set("X-Trace-Id", trace)
	re.writer.Header().Set("X-Trace-Id", trace)
	re.req = req.WithContext(ctx)

	re.logger.Debug("trace middleware injected")
	return re
}

func authenticate(re requestResponseStruct) requestResponseStruct {
	if !IsValidBearerToken(re.req.Header.Get("Authorization"), settings.AuthToken, re.logger) {
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusUnauthorized,
			errorMessage: "Unauthorized",
		}
		return re
	}
	re.logger.Debug("Authorized")
	return re
}

// identify stands in for an identity service: the caller names the user.
func identify(re requestResponseStruct) requestResponseStruct {
	userId := strings.TrimSpace(re.req.Header.Get(userIdHeader))
	if userId == "" {
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusUnauthorized,
			errorMessage: userIdHeader + " header is required",
		}
		return re
	}
	re.logger = re.logger.With("userId", userId)
	re.req = re.req.WithContext(context.WithValue(re.req.Context(), config.USER_ID_KEY, userId))
	return re
}

func authorizeAdmin(re requestResponseStruct) requestResponseStruct {
	if settings.AdminToken == "" {
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusForbidden,
			errorMessage: "Admin access is not configured",
		}
		return re
	}
	// admin routes skip the bypass flag
	authHeader := re.req.Header.Get("Authorization")
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if !strings.HasPrefix(authHeader, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(settings.AdminToken)) != 1 {
		re.logger.Warn("Admin token rejected")
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusForbidden,
			errorMessage: "Forbidden",
		}
	}
	return re
}

func IsValidBearerToken(authHeader string, expected string, log *logger_i.Logger) bool {
	if settings.NoAuthBypass {
		log.Warn("auth bypass enabled, accepting request without a token")
		return true
	}
	if expected == "" {
		log.Error("No auth token configured")
		return false
	}
	if authHeader == "" {
		log.Warn("Empty authorization header")
		return false
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		log.Warn("No Bearer header")
		return false
	}
	if subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(authHeader, "Bearer ")), []byte(expected)) != 1 {
		log.Warn("Invalid authorization header")
		return false
	}
	return true
}

func rateLimiter(re requestResponseStruct) requestResponseStruct {
	ip, _, err := net.SplitHostPort(re.req.RemoteAddr)
	if err != nil {
		ip = re.req.RemoteAddr
	}

	if !limiterInstance.GetLimiter(ip).Allow() {
		re.logger.Warn("Rate limit exceeded", "ip", ip)
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusTooManyRequests,
			errorMessage: "Rate limit exceeded. Please slow down",
		}
	}
	return re
}

func handleBadRequest(re requestResponseStruct) {
	remote := ""
	if re.req != nil {
		remote = re.req.RemoteAddr
	}
	re.logger.Warn("Bad request", "httpCode", re.badRequest.httpCode, "errorMessage", re.badRequest.errorMessage, "IP", remote)
	handlers.WriteErrorResponse(re.writer, re.badRequest.httpCode, re.badRequest.id, re.badRequest.errorMessage)
}
