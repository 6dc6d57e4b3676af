package main

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// This file contains helper functions for string manipulation: diacritic
// stripping for geocoding candidates and cache-key normalization.

// stripDiacritics removes diacritical marks from a string ("Seúl" becomes
// "Seul"). Geocoding providers have inconsistent coverage for accented
// names, so a stripped variant is tried as an extra candidate.
func stripDiacritics(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("input string is not valid UTF-8")
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return "", err
	}
	return result, nil
}

// normalizeSearchKey turns free text into a cache key: trimmed and
// lower-cased. Keys are case-insensitive so "Paris" and "paris" share one
// cache entry. Returns "" for empty or whitespace-only input.
func normalizeSearchKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// coordKey builds a fixed-precision cache key for a coordinate query, so
// nearby geolocation fixes map to the same entry.
func coordKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f,%.2f", lat, lon)
}

// joinPlaceParts builds a "City, Region, Country" display name, dropping
// empty parts. The result may be empty when every part is; callers fall back
// to formatted coordinates.
func joinPlaceParts(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
