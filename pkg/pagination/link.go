package pagination

import "strings"

// ParseLinkHeader extracts relation → URL pairs from an RFC 5988 style Link
// header value, e.g.
//
//	<https://canvas.example.com/api/v1/courses?page=2>; rel="next",
//	<https://canvas.example.com/api/v1/courses?page=1>; rel="first"
//
// Malformed segments are skipped rather than reported: a missing or broken
// header is treated as "no further pages" by the pager.
func ParseLinkHeader(header string) map[string]string {
	links := make(map[string]string)
	if header == "" {
		return links
	}

	for _, part := range strings.Split(header, ",") {
		section := strings.Split(strings.TrimSpace(part), ";")
		if len(section) < 2 {
			continue
		}

		urlPart := strings.TrimSpace(section[0])
		if !strings.HasPrefix(urlPart, "<") || !strings.HasSuffix(urlPart, ">") {
			continue
		}
		target := urlPart[1 : len(urlPart)-1]

		var rel string
		for _, seg := range section[1:] {
			seg = strings.TrimSpace(seg)
			if val, ok := strings.CutPrefix(seg, "rel="); ok {
				rel = strings.Trim(val, `"`)
			}
		}
		if rel != "" && target != "" {
			links[rel] = target
		}
	}
	return links
}
