package sanitize

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
)

// Policy selects which declared content types are rewritten and what happens
// to the rest. The zero value is disabled.
type Policy struct {
	// Enabled turns body sanitization on.
	Enabled bool

	// FailClosed rejects bodies the sanitizer cannot handle instead of
	// passing them through untouched. Off by default: unsupported content
	// types bypass sanitization and the bypass is logged upstream.
	FailClosed bool
}

// escaper rewrites every HTML-significant character in a single pass, so the
// ampersands produced for one character are never re-escaped by another.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// EscapeString returns s with &, <, >, ", ' and / replaced by character
// references.
func EscapeString(s string) string {
	return escaper.Replace(s)
}

// SensitiveField reports whether a form or JSON field name carries credential
// material that must never be rewritten (the CSRF token itself included).
func SensitiveField(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "password") ||
		strings.Contains(name, "token") ||
		strings.Contains(name, "secret") ||
		strings.Contains(name, "key")
}

// Body sanitizes body according to its declared content type. It returns the
// possibly-rewritten body and whether the content type was handled. A false
// handled with a nil error is the documented fail-open bypass; a non-nil
// error means the body claimed a supported type but could not be decoded, in
// which case the original bytes come back untouched.
func Body(contentType string, body []byte) ([]byte, bool, error) {
	if len(body) == 0 {
		return body, false, nil
	}

	switch {
	case MatchesMediaType(contentType, "application/x-www-form-urlencoded"):
		return FormBody(body), true, nil
	case MatchesMediaType(contentType, "application/json"):
		out, err := JSONBody(body)
		if err != nil {
			return body, false, err
		}
		return out, true, nil
	default:
		// multipart/form-data and everything else passes through.
		return body, false, nil
	}
}

// FormBody rewrites a URL-encoded body pair by pair, preserving field order
// and pairs that carry no "=". Sensitive fields keep their raw values.
func FormBody(body []byte) []byte {
	pairs := strings.Split(string(body), "&")
	for i, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}

		// The key may itself be percent-encoded ("csrf%5Ftoken"); decode it
		// before deciding whether the field is sensitive.
		checkKey := key
		if decoded, err := url.QueryUnescape(key); err == nil {
			checkKey = decoded
		}
		if SensitiveField(checkKey) {
			continue
		}

		decoded, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		pairs[i] = key + "=" + url.QueryEscape(EscapeString(decoded))
	}
	return []byte(strings.Join(pairs, "&"))
}

// JSONBody decodes body, escapes every string leaf, and re-encodes. Numbers
// are decoded as json.Number so numeric leaves survive byte for byte;
// booleans and nulls are untouched; object and array structure is preserved.
func JSONBody(body []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	doc = sanitizeValue("", doc)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func sanitizeValue(key string, v any) any {
	switch val := v.(type) {
	case string:
		if SensitiveField(key) {
			return val
		}
		return EscapeString(val)
	case map[string]any:
		for k, item := range val {
			val[k] = sanitizeValue(k, item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = sanitizeValue(key, item)
		}
		return val
	default:
		// json.Number, bool, nil.
		return v
	}
}

// MatchesMediaType reports whether a declared Content-Type names want,
// ignoring parameters and case.
func MatchesMediaType(contentType, want string) bool {
	ct := contentType
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.EqualFold(strings.TrimSpace(ct), want)
}
