// Package attribution captures marketing attribution parameters from incoming
// requests, persists them for a fixed window, and re-attaches them to outgoing
// links and analytics events.
package attribution

import (
	"net/url"
	"sort"
)

// Key is one of the recognized attribution query parameters.
type Key string

const (
	KeySource   Key = "utm_source"
	KeyMedium   Key = "utm_medium"
	KeyCampaign Key = "utm_campaign"
	KeyTerm     Key = "utm_term"
	KeyContent  Key = "utm_content"
	KeyGCLID    Key = "gclid"   // Google Ads
	KeyFBCLID   Key = "fbclid"  // Facebook Ads
	KeyMSCLKID  Key = "msclkid" // Microsoft Ads
)

// Keys lists every recognized key in canonical order.
var Keys = []Key{
	KeySource,
	KeyMedium,
	KeyCampaign,
	KeyTerm,
	KeyContent,
	KeyGCLID,
	KeyFBCLID,
	KeyMSCLKID,
}

// IsRecognized reports whether k belongs to the fixed key set.
func IsRecognized(k Key) bool {
	for _, known := range Keys {
		if known == k {
			return true
		}
	}
	return false
}

// Set maps attribution keys to values. Absent keys are simply not present.
type Set map[Key]string

// Capture extracts the recognized keys from a query string. Only keys that are
// present with a non-empty value are returned.
func Capture(query url.Values) Set {
	captured := Set{}
	for _, key := range Keys {
		if value := query.Get(string(key)); value != "" {
			captured[key] = value
		}
	}
	return captured
}

// Clone returns a copy of s that is safe to modify.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge returns the union of s and other. Values from other win on collision.
func (s Set) Merge(other Set) Set {
	out := s.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Get returns the value for k or fallback when k is absent.
func (s Set) Get(k Key, fallback string) string {
	if v, ok := s[k]; ok && v != "" {
		return v
	}
	return fallback
}

// OrderedKeys returns the keys of s with recognized keys first in canonical
// order, followed by any other keys sorted lexically.
func (s Set) OrderedKeys() []Key {
	keys := make([]Key, 0, len(s))
	for _, k := range Keys {
		if _, ok := s[k]; ok {
			keys = append(keys, k)
		}
	}

	var extra []Key
	for k := range s {
		if !IsRecognized(k) {
			extra = append(extra, k)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })

	return append(keys, extra...)
}

// Fields flattens s into a payload mapping keyed by parameter name.
func (s Set) Fields() map[string]any {
	fields := make(map[string]any, len(s))
	for k, v := range s {
		fields[string(k)] = v
	}
	return fields
}

// sanitize drops unrecognized keys and empty values.
func sanitize(raw map[string]string) Set {
	out := Set{}
	for k, v := range raw {
		if v == "" || !IsRecognized(Key(k)) {
			continue
		}
		out[Key(k)] = v
	}
	return out
}
