package ledger

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Composite keys use the same layout as Fabric so that indexes written by
// the memory or Postgres ledger are byte-identical to those written on a peer.
const (
	compositeKeyNamespace = "\x00"
	minUnicodeRuneValue   = 0
	maxUnicodeRuneValue   = utf8.MaxRune
	emptyKeySubstitute    = "\x01"
)

// CreateCompositeKey joins the object type and attributes into a composite key.
func CreateCompositeKey(objectType string, attributes []string) (string, error) {
	if err := validateCompositeKeyAttribute(objectType); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(compositeKeyNamespace)
	b.WriteString(objectType)
	b.WriteRune(minUnicodeRuneValue)
	for _, attr := range attributes {
		if err := validateCompositeKeyAttribute(attr); err != nil {
			return "", err
		}
		b.WriteString(attr)
		b.WriteRune(minUnicodeRuneValue)
	}
	return b.String(), nil
}

// SplitCompositeKey is the inverse of CreateCompositeKey.
func SplitCompositeKey(compositeKey string) (string, []string, error) {
	if !strings.HasPrefix(compositeKey, compositeKeyNamespace) {
		return "", nil, fmt.Errorf("key %q is not a composite key", compositeKey)
	}
	parts := strings.Split(compositeKey[len(compositeKeyNamespace):], string(rune(minUnicodeRuneValue)))
	// The trailing separator yields an empty final element.
	if len(parts) < 2 || parts[len(parts)-1] != "" {
		return "", nil, fmt.Errorf("malformed composite key %q", compositeKey)
	}
	return parts[0], parts[1 : len(parts)-1], nil
}

// PartialCompositeRange returns the scan bounds covering every composite key
// that starts with the given object type and attributes.
func PartialCompositeRange(objectType string, attributes []string) (string, string, error) {
	start, err := CreateCompositeKey(objectType, attributes)
	if err != nil {
		return "", "", err
	}
	return start, start + string(rune(maxUnicodeRuneValue)), nil
}

// PrefixRange returns the [start, end) bounds of all simple keys with prefix.
func PrefixRange(prefix string) (string, string) {
	return prefix, prefix + string(rune(maxUnicodeRuneValue))
}

func validateCompositeKeyAttribute(str string) error {
	if !utf8.ValidString(str) {
		return fmt.Errorf("not a valid utf8 string: [%x]", str)
	}
	for _, r := range str {
		if r == minUnicodeRuneValue || r == maxUnicodeRuneValue {
			return fmt.Errorf("input contains unicode %#U starting at position [%d]; %#U and %#U are not allowed in the input attribute of a composite key",
				r, strings.IndexRune(str, r), minUnicodeRuneValue, maxUnicodeRuneValue)
		}
	}
	return nil
}
