package codegen

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// PascalCase joins the words of s, upper-casing the first letter of each and
// keeping the rest as written: "user-card" and "userCard" give "UserCard".
func PascalCase(s string) string {
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words(s) {
		b.WriteString(caser.String(w))
	}
	return b.String()
}

// ComponentName turns a free-form name into a React component identifier.
func ComponentName(s string) string {
	name := PascalCase(s)
	if name == "" {
		return "App"
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "C" + name
	}
	return name
}

// packageName derives an npm package name; "CounterCard" gives
// "counter-card".
func packageName(s string) string {
	var b strings.Builder
	prevLower := false
	for _, w := range words(s) {
		if b.Len() > 0 {
			b.WriteByte('-')
		}
		prevLower = false
		for _, r := range w {
			if unicode.IsUpper(r) && prevLower {
				b.WriteByte('-')
			}
			prevLower = unicode.IsLower(r) || unicode.IsDigit(r)
			b.WriteRune(unicode.ToLower(r))
		}
	}
	if b.Len() == 0 {
		return "mir-app"
	}
	return b.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$':
		case unicode.IsLetter(r):
		case unicode.IsDigit(r) && i > 0:
		default:
			return false
		}
	}
	return true
}

// propertyKey renders an object key or interface member name.
func propertyKey(k string) string {
	if isIdentifier(k) {
		return k
	}
	return jsString(k)
}

// isAttrName reports whether k can be written as a JSX attribute.
func isAttrName(k string) bool {
	if k == "" {
		return false
	}
	for i, r := range k {
		switch {
		case unicode.IsLetter(r) || r == '_':
		case (unicode.IsDigit(r) || r == '-' || r == ':') && i > 0:
		default:
			return false
		}
	}
	return true
}
