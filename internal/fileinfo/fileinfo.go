package fileinfo

import (
	"fmt"
	"sort"
	"strings"
)

// RecognizedExtensions lists the image suffixes the analyzer knows about.
var RecognizedExtensions = []string{".jpg", ".jpeg", ".png", ".tiff", ".tif"}

// DefaultExtensions is the selection used when none is configured.
var DefaultExtensions = []string{".jpg", ".jpeg"}

// ExtensionSet is a set of lower-cased suffixes including the leading dot.
type ExtensionSet map[string]struct{}

// NewExtensionSet normalizes exts ("JPG", "*.jpeg", ".Png") into a set.
// Empty entries are ignored.
func NewExtensionSet(exts ...string) (ExtensionSet, error) {
	set := make(ExtensionSet, len(exts))
	for _, ext := range exts {
		norm, err := NormalizeExtension(ext)
		if err != nil {
			return nil, err
		}
		if norm == "" {
			continue
		}
		set[norm] = struct{}{}
	}
	return set, nil
}

// NormalizeExtension lower-cases ext and makes sure it starts with a dot.
func NormalizeExtension(ext string) (string, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimPrefix(ext, "*")
	if ext == "" {
		return "", nil
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if ext == "." || strings.ContainsAny(ext, `/\`) {
		return "", fmt.Errorf("invalid extension %q", ext)
	}
	return ext, nil
}

// Matches reports whether name ends with one of the suffixes, ignoring case.
func (s ExtensionSet) Matches(name string) bool {
	lower := strings.ToLower(name)
	for ext := range s {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Sorted returns the extensions in lexical order.
func (s ExtensionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for ext := range s {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// IsRecognized checks if ext is one of RecognizedExtensions
func IsRecognized(ext string) bool {
	ext = strings.ToLower(ext)
	for _, r := range RecognizedExtensions {
		if r == ext {
			return true
		}
	}
	return false
}

// Unrecognized returns the members of s that are not known image types, in
// lexical order.
func (s ExtensionSet) Unrecognized() []string {
	var out []string
	for _, ext := range s.Sorted() {
		if !IsRecognized(ext) {
			out = append(out, ext)
		}
	}
	return out
}
