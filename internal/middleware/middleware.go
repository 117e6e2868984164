package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/DocAssist/internal/adapter/utils"
	"github.com/akolanti/DocAssist/internal/config"
	"github.com/akolanti/DocAssist/internal/handlers"
	"github.com/akolanti/DocAssist/internal/metrics"
	"github.com/akolanti/DocAssist/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
	id           string
}

type step func(requestResponseStruct) requestResponseStruct

var settings = config.Default()

// Init sets the tokens the chain checks against and resets the per-IP
// limiter to the configured rate.
func Init(s *config.Settings) {
	settings = s
	limiterInstance = newLimiterFromSettings(s)
}

var (
	userChain  = []step{injectTrace, rateLimiter, authenticate, identify}
	adminChain = []step{injectTrace, rateLimiter, authorizeAdmin}
)

var GetStatusHandler = Wrap(handlers.GetStatusHandler)
var PostIngestHandler = Wrap(handlers.PostIngestHandler)
var ListDocumentsHandler = Wrap(handlers.ListDocumentsHandler)
var DeleteDocumentHandler = Wrap(handlers.DeleteDocumentHandler)
var ToggleDocumentHandler = Wrap(handlers.ToggleDocumentHandler)

var AskHandler = Wrap(handlers.AskHandler)
var HistoryHandler = Wrap(handlers.HistoryHandler)
var SessionsHandler = Wrap(handlers.SessionsHandler)
var DeleteSessionHandler = Wrap(handlers.DeleteSessionHandler)
var SearchHandler = Wrap(handlers.SearchHandler)

var UsageHandler = WrapAdmin(handlers.UsageHandler)

// Wrap runs the user chain: trace, rate limit, bearer auth, X-User-Id.
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return wrapWith(userChain, next)
}

// WrapAdmin requires the admin token instead of a user identity.
func WrapAdmin(next http.HandlerFunc) http.HandlerFunc {
	return wrapWith(adminChain, next)
}

func wrapWith(chain []step, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		defer func() {
			metrics.HttpRequestsTotal.WithLabelValues(utils.GetRoutePattern(r), strconv.Itoa(rec.Status)).Inc()
		}()

		re := processRequest(requestResponseStruct{req: r, writer: rec}, chain)
		if re.badRequest.isBadRequest {
			handleBadRequest(re)
			return
		}
		next(rec, re.req)
	}
}

func processRequest(re requestResponseStruct, chain []step) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	for _, s := range chain {
		re = s(re)
		if re.badRequest.isBadRequest {
			return re
		}
	}
	re.logger.Debug("Request accepted", "method", re.req.Method, "path", re.req.URL.Path)
	return re
}
