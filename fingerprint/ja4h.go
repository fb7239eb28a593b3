package fingerprint

import (
	"fmt"
	"strings"

	"github.com/firasghr/GoFingerprintEngine/wire"
)

// JA4H is the FoxIO HTTP request fingerprint: a human-readable prefix over
// method, version, cookie/referer presence, header count, and primary
// accept-language, plus a hash over the header-name order,
// e.g. "ge20cr12enus_8b7a3f2c1d9e".
type JA4H struct {
	// Prefix is the method/version/cookie/referer/count/language section.
	Prefix string

	// HeaderHash is the 12-hex-char hash over the lowercased header names in
	// wire order.
	HeaderHash string

	// HeaderNames keeps the hashed name list for component-wise comparison.
	HeaderNames []string
}

// Kind returns KindJA4H.
func (j JA4H) Kind() Kind { return KindJA4H }

// Canonical returns "prefix_headerhash".
func (j JA4H) Canonical() string { return j.Prefix + "_" + j.HeaderHash }

// Key returns "ja4h:<canonical>".
func (j JA4H) Key() string { return MakeKey(KindJA4H, j.Canonical()) }

// Decompose splits the fingerprint into its two sections.  The header-name
// list the hash covers stays available as HeaderNames but does not take part
// in decomposed comparison: stored database keys carry only the canonical
// string, and both sides of a comparison must decompose identically.
func (j JA4H) Decompose() Decomposed {
	return Decomposed{
		{Name: "prefix", Tokens: []string{j.Prefix}},
		{Name: "headerhash", Tokens: []string{j.HeaderHash}},
	}
}

// DeriveJA4H computes the JA4H fingerprint of an HTTP request header set.
//
// Prefix layout: the first two letters of the method lowercased, the version
// code ("10", "11", "20", "30"), 'c'/'n' for cookie presence, 'r'/'n' for
// referer presence, the header count as two decimal digits capped at 99, and
// the primary Accept-Language as four lowercase characters (hyphens removed,
// zero-padded, "0000" when absent).
//
// The hashed section covers the header names in original wire order,
// lowercased and comma-joined, excluding Cookie, Referer, and the HTTP/2+
// pseudo-headers.  The header count excludes the same names so the two
// sections stay consistent.
func DeriveJA4H(headers *wire.HTTPRequestHeaders) (JA4H, error) {
	if headers == nil {
		return JA4H{}, missingField("request headers")
	}
	if headers.Method == "" {
		return JA4H{}, missingField("method")
	}

	names := hashedHeaderNames(headers)

	var prefix strings.Builder
	prefix.WriteString(methodCode(headers.Method))
	prefix.WriteString(httpVersionCode(headers.Version))
	if headers.CookieCount > 0 {
		prefix.WriteByte('c')
	} else {
		prefix.WriteByte('n')
	}
	if headers.RefererPresent {
		prefix.WriteByte('r')
	} else {
		prefix.WriteByte('n')
	}
	fmt.Fprintf(&prefix, "%02d", capCount(len(names)))
	prefix.WriteString(languageCode(headers.AcceptLanguage))

	headerHash := emptyHashSection
	if len(names) > 0 {
		headerHash = truncatedSHA256(strings.Join(names, ","))
	}

	return JA4H{
		Prefix:      prefix.String(),
		HeaderHash:  headerHash,
		HeaderNames: names,
	}, nil
}

// hashedHeaderNames returns the lowercased header names that participate in
// the JA4H hash, wire order preserved.
func hashedHeaderNames(headers *wire.HTTPRequestHeaders) []string {
	var names []string
	for _, pair := range headers.Headers {
		name := strings.ToLower(pair.Name)
		if name == "" || name[0] == ':' {
			continue
		}
		if name == "cookie" || name == "referer" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// methodCode returns the first two letters of the method, lowercased and
// zero-padded for degenerate single-letter methods.
func methodCode(method string) string {
	m := strings.ToLower(method)
	if len(m) >= 2 {
		return m[:2]
	}
	return m + strings.Repeat("0", 2-len(m))
}

// httpVersionCode maps an HTTP version to its two-digit JA4H code.
func httpVersionCode(version wire.HTTPVersion) string {
	switch version {
	case wire.HTTP10:
		return "10"
	case wire.HTTP2:
		return "20"
	case wire.HTTP3:
		return "30"
	default:
		return "11"
	}
}

// languageCode renders the primary Accept-Language value as four lowercase
// characters: quality parameters and secondary languages are dropped, hyphens
// removed, the result zero-padded or truncated to width four.
func languageCode(acceptLanguage string) string {
	lang := acceptLanguage
	if idx := strings.IndexByte(lang, ','); idx >= 0 {
		lang = lang[:idx]
	}
	if idx := strings.IndexByte(lang, ';'); idx >= 0 {
		lang = lang[:idx]
	}
	lang = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(lang), "-", ""))
	if lang == "" {
		return "0000"
	}
	if len(lang) < 4 {
		return lang + strings.Repeat("0", 4-len(lang))
	}
	return lang[:4]
}
