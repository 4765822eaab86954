package vault

import "strings"

// NormalizeSiteURL reduces a URL or application identifier to its canonical
// matching form: scheme, path, port, "www." prefix and trailing slash are
// stripped and the host is lowercased. Non-URL identifiers (e.g. an
// application name) are simply lowercased and trimmed.
func NormalizeSiteURL(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if host, _, ok := strings.Cut(s, "/"); ok {
		s = host
	}
	if host, _, ok := strings.Cut(s, ":"); ok {
		s = host
	}
	s = strings.TrimPrefix(s, "www.")
	return strings.TrimSuffix(s, ".")
}

// baseDomain returns the last two labels of a host. This is a heuristic,
// not a public-suffix lookup; it exists only to feed the advisory
// similar-domain signal.
func baseDomain(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) > 2 {
		return strings.Join(parts[len(parts)-2:], ".")
	}
	return host
}

// similarHosts reports whether two distinct normalized hosts look like
// variants of the same site (mail.example.com vs example.com).
func similarHosts(a, b string) bool {
	if a == b || a == "" || b == "" {
		return false
	}
	if strings.HasSuffix(a, "."+b) || strings.HasSuffix(b, "."+a) {
		return true
	}
	return baseDomain(a) == baseDomain(b)
}

// matchCandidate runs the duplicate-detection rules for a candidate against
// the stored records. Exact matches come first, then similar-domain, then
// username-reuse. Only an exact match blocks a write; the rest are
// advisory.
func matchCandidate(existing []Record, siteURL, username string) []Match {
	host := NormalizeSiteURL(siteURL)

	var exact, similar, reuse []Match
	for _, rec := range existing {
		if rec.Username != username {
			continue
		}
		recHost := NormalizeSiteURL(rec.SiteURL)
		switch {
		case recHost == host:
			exact = append(exact, Match{Kind: MatchExact, Record: rec})
		case similarHosts(recHost, host):
			similar = append(similar, Match{Kind: MatchSimilarDomain, Record: rec})
		default:
			reuse = append(reuse, Match{Kind: MatchUsernameReuse, Record: rec})
		}
	}

	matches := make([]Match, 0, len(exact)+len(similar)+len(reuse))
	matches = append(matches, exact...)
	matches = append(matches, similar...)
	return append(matches, reuse...)
}
