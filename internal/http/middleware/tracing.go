package middleware

import (
	"net/http"

	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/trace"

	"github.com/dalilfazara/dalil/pkg/visitor"
)

// TracingMiddleware starts an OpenCensus span per request and tags it with
// the request shape and the visitor when the cookie is present
func TracingMiddleware(next http.Handler) http.Handler {
	tagged := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if span := trace.FromContext(r.Context()); span != nil {
			span.AddAttributes(
				trace.StringAttribute("http.user_agent", r.UserAgent()),
				trace.StringAttribute("http.path", r.URL.Path),
			)
			if r.URL.RawQuery != "" {
				span.AddAttributes(trace.StringAttribute("http.query", r.URL.RawQuery))
			}
			if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
				span.AddAttributes(trace.StringAttribute("http.request_id", requestID))
			}
			if id, ok := visitor.FromRequest(r); ok {
				span.AddAttributes(trace.StringAttribute("visitor_id", id))
			}
		}

		next.ServeHTTP(&statusRecorder{ResponseWriter: w, span: trace.FromContext(r.Context())}, r)
	})

	return &ochttp.Handler{
		Handler: tagged,
		FormatSpanName: func(r *http.Request) string {
			return r.Method + " " + r.URL.Path
		},
		IsPublicEndpoint: true,
	}
}

// statusRecorder marks the span failed for 4xx and 5xx answers
type statusRecorder struct {
	http.ResponseWriter
	span *trace.Span
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.span != nil {
		s.span.AddAttributes(trace.Int64Attribute("http.status_code", int64(code)))
		if code >= 400 {
			s.span.SetStatus(trace.Status{Code: trace.StatusCodeUnknown, Message: http.StatusText(code)})
		}
	}
	s.ResponseWriter.WriteHeader(code)
}

var _ http.ResponseWriter = (*statusRecorder)(nil)
