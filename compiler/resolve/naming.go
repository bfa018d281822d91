package resolve

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/sqlbind/compiler/annotation"
	"github.com/syssam/sqlbind/schema/sqltype"
)

var (
	rules    = ruleset()
	acronyms = make(map[string]struct{})
	titler   = cases.Title(language.Und, cases.NoLower)
)

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	for _, w := range []string{
		"ACL", "API", "ASCII", "CPU", "CSS", "DNS", "EOF", "GUID", "HTML",
		"HTTP", "HTTPS", "ID", "IP", "JSON", "LHS", "QPS", "RAM", "RHS",
		"RPC", "SLA", "SMTP", "SQL", "SSH", "TCP", "TLS", "TTL", "UDP",
		"UI", "UID", "UUID", "URI", "URL", "UTF8", "VM", "XML", "XMPP",
		"XSRF", "XSS",
	} {
		acronyms[w] = struct{}{}
		rules.AddAcronym(w)
	}
	return rules
}

// AddAcronym adds an acronym to the naming rules, so that pascal and
// camel keep it uppercased.
func AddAcronym(word string) {
	w := strings.ToUpper(word)
	acronyms[w] = struct{}{}
	rules.AddAcronym(w)
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || unicode.IsSpace(r)
}

func pascalWords(words []string) string {
	for i, w := range words {
		upper := strings.ToUpper(w)
		if _, ok := acronyms[upper]; ok {
			words[i] = upper
			continue
		}
		words[i] = rules.Capitalize(w)
	}
	return strings.Join(words, "")
}

// pascal converts the given name into a PascalCase.
//
//	user_info  => UserInfo
//	full_name  => FullName
//	user_id    => UserID
//	full-admin => FullAdmin
func pascal(s string) string {
	words := strings.FieldsFunc(s, isSeparator)
	return pascalWords(words)
}

// camel converts the given name into a camelCase.
//
//	user_info  => userInfo
//	full_name  => fullName
//	user_id    => userID
//	full-admin => fullAdmin
func camel(s string) string {
	words := strings.FieldsFunc(s, isSeparator)
	if len(words) == 1 {
		return strings.ToLower(words[0])
	}
	return strings.ToLower(words[0]) + pascalWords(words[1:])
}

// snake converts the given struct or field name into a snake_case.
//
//	Username => username
//	FullName => full_name
//	HTTPCode => http_code
func snake(s string) string {
	var (
		j int
		b strings.Builder
	)
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		// Put '_' if it is not a start or end of a word, current letter is uppercase,
		// and previous letter is lowercase (cases like: "UserInfo"), or next letter is
		// also a lowercase and previous letter is not "_".
		if i > 0 && i < len(s)-1 && unicode.IsUpper(r) {
			if unicode.IsLower(rune(s[i-1])) ||
				j != i-1 && unicode.IsLower(rune(s[i+1])) && unicode.IsLetter(rune(s[i-1])) {
				j = i
				b.WriteString("_")
			}
		}
		b.WriteString(strings.ToLower(string(r)))
	}
	return b.String()
}

// propertyName returns the property name for a base column or field
// name under the given naming policy, honoring explicit overrides.
func propertyName(policy annotation.Policy, over *annotation.FieldOverrides, base string) string {
	if over != nil && over.PropertyName != "" {
		return over.PropertyName
	}
	if policy == annotation.PolicyLowerCamel {
		return camel(base)
	}
	return base
}

// sanitizeSuffix normalizes a source alias into a name suffix:
// lowercased, runs of non-alphanumerics collapsed to single underscores.
func sanitizeSuffix(s string) string {
	var (
		b     strings.Builder
		under bool
	)
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			under = false
			continue
		}
		if !under && b.Len() > 0 {
			b.WriteByte('_')
			under = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// typeLabel returns an identifier-safe label for a logical type, used
// to name adapter functions. The package qualifier is dropped and
// generic arguments are kept with their punctuation stripped:
// "types.Money" gives "Money", "Map<string, int>" gives "MapStringInt".
func typeLabel(t sqltype.TypeInfo) string {
	s := t.Ident
	if s == "" {
		if t.Type == sqltype.TypeBytes {
			return "Bytes"
		}
		s = t.Type.String()
	}
	if i := strings.IndexAny(s, "<(["); i >= 0 {
		if j := strings.LastIndexByte(s[:i], '.'); j >= 0 {
			s = s[j+1:]
		}
	} else if j := strings.LastIndexByte(s, '.'); j >= 0 {
		s = s[j+1:]
	}
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, w := range words {
		words[i] = titler.String(w)
	}
	return strings.Join(words, "")
}

// renameLabel returns the disambiguation suffix appended to an adapter
// name that collides with a different signature: the type label plus
// shape and nullability tokens.
func renameLabel(t sqltype.TypeInfo) string {
	l := typeLabel(t)
	if t.Slice {
		l += "List"
	}
	if t.Nullable {
		l += "Nullable"
	}
	return l
}
