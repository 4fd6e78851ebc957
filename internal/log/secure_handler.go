package log

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// MaskValue replaces a sensitive attribute value.
const MaskValue = "***REDACTED***"

// redactedParam replaces secrets inside URLs. It needs no escaping, so a
// redacted URL stays readable.
const redactedParam = "REDACTED"

// sensitiveNames are attribute keys, header names and query parameters
// whose values are never logged. Matching is case-insensitive.
var sensitiveNames = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"x-csrf-token":        true,
	"api_key":             true,
	"api-key":             true,
	"apikey":              true,
	"key":                 true,
	"sid":                 true,
	"jsessionid":          true,
	"sig":                 true,
	"signature":           true,
}

// sensitiveKeywords mark a name as sensitive wherever they occur in it.
// The bare "key" is only matched exactly: as a substring it hits names
// such as primary_key.
var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "auth", "credential", "private", "session",
}

// sensitivePatterns match secret values regardless of the key they are
// logged under.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	regexp.MustCompile(`(?i)-----BEGIN.*(PRIVATE|SECRET).*KEY-----`),
}

// urlPattern finds absolute URLs embedded in messages such as transport
// errors ("Get \"https://...\": dial tcp ...").
var urlPattern = regexp.MustCompile(`https?://[^\s"'<>]+`)

// SecureHandler wraps an slog.Handler and redacts secrets before records
// reach it. A crawl can be configured with a session cookie, custom headers
// and URLs carrying credentials, and all of them end up in fetch logs:
//   - attributes named like a credential are replaced by MaskValue
//   - values that look like a credential are replaced by MaskValue
//   - URLs keep their shape, but userinfo passwords and sensitive query
//     parameters are replaced
//   - header maps (map[string]string, http.Header) become groups with the
//     sensitive headers masked
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler creates a SecureHandler wrapping handler.
// A nil handler falls back to slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle redacts the record's message and attributes and passes it on.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	msg, _ := redactURLs(r.Message)
	sanitized := slog.NewRecord(r.Time, r.Level, msg, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs redacts attrs before attaching them.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup delegates to the wrapped handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		sanitized := make([]slog.Attr, len(group))
		for i, ga := range group {
			sanitized[i] = sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	if isSensitiveName(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, sanitizeString(a.Value.String()))
	case slog.KindAny:
		return sanitizeAny(a)
	default:
		return a
	}
}

// sanitizeAny handles header maps and errors. Other values pass through.
func sanitizeAny(a slog.Attr) slog.Attr {
	switch v := a.Value.Any().(type) {
	case map[string]string:
		return headerGroup(a.Key, v, func(k string) string { return v[k] })
	case http.Header:
		return headerGroup(a.Key, v, func(k string) string { return strings.Join(v[k], ", ") })
	case error:
		if s, changed := redactURLs(v.Error()); changed {
			return slog.String(a.Key, s)
		}
	}
	return a
}

func headerGroup[M ~map[string]V, V any](key string, m M, get func(string) string) slog.Attr {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	slices.Sort(names)

	attrs := make([]slog.Attr, 0, len(names))
	for _, name := range names {
		value := MaskValue
		if !isSensitiveName(name) {
			value = sanitizeString(get(name))
		}
		attrs = append(attrs, slog.String(name, value))
	}
	return slog.Attr{Key: key, Value: slog.GroupValue(attrs...)}
}

func sanitizeString(s string) string {
	if isSensitiveValue(s) {
		return MaskValue
	}
	redacted, _ := redactURLs(s)
	return redacted
}

func isSensitiveName(name string) bool {
	lower := strings.ToLower(name)
	return sensitiveNames[lower] || containsSensitiveKeyword(lower)
}

// containsSensitiveKeyword reports whether key contains one of the
// sensitive keywords. key must already be lower case.
func containsSensitiveKeyword(key string) bool {
	for _, kw := range sensitiveKeywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

func isSensitiveValue(value string) bool {
	for _, p := range sensitivePatterns {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}

// redactURLs rewrites every URL in s whose userinfo password or query
// parameters are sensitive. It reports whether anything was replaced.
func redactURLs(s string) (string, bool) {
	if !strings.Contains(s, "://") {
		return s, false
	}
	changed := false
	out := urlPattern.ReplaceAllStringFunc(s, func(raw string) string {
		redacted, ok := redactURL(raw)
		if ok {
			changed = true
		}
		return redacted
	})
	return out, changed
}

func redactURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return raw, false
	}

	changed := false
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), redactedParam)
		changed = true
	}

	if u.RawQuery != "" {
		q := u.Query()
		for name := range q {
			if isSensitiveName(name) {
				q.Set(name, redactedParam)
				changed = true
			}
		}
		if changed {
			u.RawQuery = q.Encode()
		}
	}

	if !changed {
		return raw, false
	}
	return u.String(), true
}

// LevelFor maps the CLI verbosity flags to a log level.
// The default is Info so that crawl progress is visible.
func LevelFor(verbose, quiet bool) slog.Level {
	switch {
	case verbose:
		return slog.LevelDebug
	case quiet:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// NewSecureLogger creates a text logger writing to w at level, with every
// record passed through a SecureHandler.
func NewSecureLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// NewSecureJSONLogger is NewSecureLogger with JSON lines output, for crawl
// logs that are shipped elsewhere.
func NewSecureJSONLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewSecureHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

// Discard returns a logger that drops every record.
// Components use it when no logger is supplied.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
