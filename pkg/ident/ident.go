// Package ident builds and parses the composite entity IDs used as cache
// keys across the engine. A composite ID is "owner:localId"; user entities
// are keyed by the owner's public key alone.
package ident

import (
	"strings"
)

// Sep separates the owner and local halves of a composite ID.
const Sep = ":"

// Resource selects the remote URI namespace an ID is extracted from.
type Resource string

const (
	ResourcePosts Resource = "posts"
	ResourceFiles Resource = "files"
)

// remote URIs look like pubky://<owner>/pub/pubky.app/<resource>/<localId>
const (
	uriScheme  = "pubky://"
	uriAppPath = "/pub/pubky.app/"
)

// Build concatenates owner and localId into a composite ID. It returns
// false when either half is empty or itself contains the separator.
func Build(owner, localID string) (string, bool) {
	if owner == "" || localID == "" {
		return "", false
	}
	if strings.Contains(owner, Sep) || strings.Contains(localID, Sep) {
		return "", false
	}
	return owner + Sep + localID, true
}

// Parse splits a composite ID on the first separator. It returns false for
// malformed input: no separator, empty owner, or empty localId. It never
// panics; callers must handle the absent case explicitly.
func Parse(id string) (owner, localID string, ok bool) {
	i := strings.Index(id, Sep)
	if i <= 0 || i == len(id)-1 {
		return "", "", false
	}
	return id[:i], id[i+1:], true
}

// FromIDOrURI normalizes a caller-supplied reference into a composite
// ID. Plain composite IDs pass through after validation; remote
// locators are reduced via FromRemoteURI. Anything else returns false.
func FromIDOrURI(s string, res Resource) (string, bool) {
	if strings.HasPrefix(s, uriScheme) {
		return FromRemoteURI(s, res)
	}
	if _, _, ok := Parse(s); !ok {
		return "", false
	}
	return s, true
}

// FromRemoteURI extracts a composite ID from a remote resource locator
// scoped to one resource namespace. Any shape mismatch returns false;
// callers persisting bookmarks or moderation records must fail the
// surrounding operation rather than proceed with a guessed ID.
func FromRemoteURI(uri string, res Resource) (string, bool) {
	rest, found := strings.CutPrefix(uri, uriScheme)
	if !found {
		return "", false
	}
	owner, path, found := strings.Cut(rest, "/")
	if !found || owner == "" {
		return "", false
	}
	path = "/" + path
	tail, found := strings.CutPrefix(path, uriAppPath+string(res)+"/")
	if !found {
		return "", false
	}
	if tail == "" || strings.Contains(tail, "/") {
		return "", false
	}
	return Build(owner, tail)
}
