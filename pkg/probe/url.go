package probe

import "net/url"

// ResolveURL resolves ref against base the way a browser would resolve a
// form action or link href. On any parse failure ref is returned as-is.
func ResolveURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
