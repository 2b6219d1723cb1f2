package goShield

import (
	"bytes"
	"encoding/json"
	"net/url"

	"github.com/MrEthical07/goShield/sanitize"
	"github.com/MrEthical07/goShield/token"
)

// presentedToken extracts the token the client presented: the X-CSRF-Token
// header wins, then the csrf_token field of a form or JSON body. The value
// comes back verbatim; masked and raw forms are both resolved by
// verifyPresented.
func presentedToken(req *Request) string {
	if v := req.Header.Get(TokenHeader); v != "" {
		return v
	}

	switch {
	case sanitize.MatchesMediaType(req.ContentType, "application/x-www-form-urlencoded"):
		values, err := url.ParseQuery(string(req.Body))
		if err != nil {
			return ""
		}
		return values.Get(TokenField)
	case sanitize.MatchesMediaType(req.ContentType, "application/json"):
		dec := json.NewDecoder(bytes.NewReader(req.Body))
		var doc map[string]json.RawMessage
		if err := dec.Decode(&doc); err != nil {
			return ""
		}
		var v string
		if raw, ok := doc[TokenField]; ok && json.Unmarshal(raw, &v) == nil {
			return v
		}
	}

	return ""
}

// verifyPresented accepts the stored token either verbatim or in masked form.
// The raw comparison runs first: a hex token is coincidentally valid base64,
// so unmasking first would mangle clients that echo the stored value.
func verifyPresented(stored, presented string) bool {
	if token.Verify(stored, presented) {
		return true
	}
	unmasked, err := token.Unmask(presented)
	if err != nil {
		return false
	}
	return token.Verify(stored, unmasked)
}
