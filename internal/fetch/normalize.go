package fetch

import (
	"net/url"
	"sort"
	"strings"
)

// trackingParams are query parameters dropped during normalization.
var trackingParams = map[string]bool{
	"gclid": true, "fbclid": true, "dclid": true, "msclkid": true, "yclid": true,
	"mc_cid": true, "mc_eid": true, "_ga": true, "_gl": true, "igshid": true, "ref": true, "ref_src": true,
}

// NormalizeURL canonicalizes a URL for identity comparisons: scheme and host lower-cased,
// default ports, fragment and tracking parameters removed, remaining query sorted, and the
// trailing slash dropped from non-root paths.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw != "" && !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", &Error{URL: raw, Message: "invalid URL", Cause: err}
	}
	if u.Host == "" {
		return "", &Error{URL: raw, Message: "invalid URL: missing host"}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}
	u.Host = host
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil

	q := u.Query()
	for key := range q {
		if strings.HasPrefix(strings.ToLower(key), "utm_") || trackingParams[strings.ToLower(key)] {
			q.Del(key)
		}
	}
	u.RawQuery = encodeSorted(q)

	path := strings.TrimRight(u.Path, "/")
	if path == "" {
		path = "/"
	}
	u.Path = path
	u.RawPath = ""

	return u.String(), nil
}

func encodeSorted(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		vals := append([]string(nil), q[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}
	return strings.Join(parts, "&")
}

// MustNormalize returns the normalized URL, or the trimmed input when it cannot be parsed.
func MustNormalize(raw string) string {
	n, err := NormalizeURL(raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return n
}

// Origin returns the normalized root ("https://host/") of a URL.
func Origin(raw string) (string, error) {
	n, err := NormalizeURL(raw)
	if err != nil {
		return "", err
	}
	u, _ := url.Parse(n)
	return u.Scheme + "://" + u.Host + "/", nil
}

// Host returns the lower-cased host without a "www." prefix, or "" when unparseable.
func Host(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// SameSite reports whether two URLs share a host, ignoring "www.".
func SameSite(a, b string) bool {
	ha, hb := Host(a), Host(b)
	return ha != "" && ha == hb
}

// PathSegments returns the non-empty path segments of a URL.
func PathSegments(raw string) []string {
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	var segs []string
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
