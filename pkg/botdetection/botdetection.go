// Package botdetection tells page loads made by people apart from crawlers,
// link preview fetchers and scripted clients so they stay out of visit counts.
package botdetection

import (
	"net/http"
	"strings"
)

// botPatterns are lowercase substrings of non human user agents
var botPatterns = []string{
	"bot",
	"crawler",
	"spider",
	"slurp",
	"scanner",
	"lighthouse",
	"headlesschrome",
	"phantomjs",
	"selenium",
	"puppeteer",
	"playwright",
	"facebookexternalhit", // link previews
	"whatsapp",
	"telegram",
	"skypeuripreview",
	"python-requests",
	"curl",
	"wget",
	"go-http-client",
	"okhttp",
	"postman",
}

// IsBotUserAgent reports whether userAgent looks automated. An empty
// user agent counts as automated.
func IsBotUserAgent(userAgent string) bool {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if ua == "" {
		return true
	}

	for _, pattern := range botPatterns {
		if strings.Contains(ua, pattern) {
			return true
		}
	}
	return false
}

// IsPrefetch reports whether the browser is speculatively loading the page
func IsPrefetch(r *http.Request) bool {
	for _, h := range []string{"Sec-Purpose", "Purpose", "X-Moz"} {
		if strings.Contains(strings.ToLower(r.Header.Get(h)), "prefetch") {
			return true
		}
	}
	return false
}

// ShouldSkip reports whether a tracking request should be acknowledged
// without being recorded
func ShouldSkip(r *http.Request) bool {
	return IsBotUserAgent(r.UserAgent()) || IsPrefetch(r)
}
