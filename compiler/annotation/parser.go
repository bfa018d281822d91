package annotation

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Recognized annotation keys. The set is closed: anything else in a
// block is a parse error.
const (
	keyField             = "field"
	keyPropertyName      = "propertyName"
	keyPropertyType      = "propertyType"
	keyNotNull           = "notNull"
	keyAdapter           = "adapter"
	keyDynamic           = "isDynamicField"
	keyMappingType       = "mappingType"
	keySourceTable       = "sourceTable"
	keyRemoveAliasPrefix = "removeAliasPrefix"
	keyDefaultValue      = "defaultValue"
	keyUniqueKey         = "uniqueKey"
	keyResultName        = "queryResult"
	keySharedResult      = "sharedResult"
	keyImplements        = "implements"
	keyExcludeOverride   = "excludeOverrideFields"
	keyPolicy            = "propertyNameGenerator"
	keyCollectionKey     = "collectionKey"
)

// marker opens an annotation block inside a comment.
const marker = "@@{"

// block is the grammar root: a brace-enclosed, comma-separated list
// of key=value pairs. The leading marker is stripped before parsing.
type block struct {
	Pairs []*pair `parser:"\"{\" ( @@ ( \",\" @@ )* \",\"? )? \"}\""`
}

type pair struct {
	Key   string `parser:"@Ident \"=\""`
	Value *value `parser:"@@"`
}

type value struct {
	Str  *string `parser:"  @String"`
	List *list   `parser:"| @@"`
	Word *string `parser:"| @(Ident|Number)"`
}

type list struct {
	Open  bool     `parser:"@\"[\""`
	Items []string `parser:"( @(Ident|String|Number) ( \",\" @(Ident|String|Number) )* \",\"? )? \"]\""`
}

// dslLexer tokenizes annotation blocks. Idents cover bare values such
// as p.id and types.Money in addition to keys.
var dslLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Number", Pattern: `[-+]?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.]*`},
	{Name: "Punct", Pattern: `[{}\[\],=]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

var dslParser = participle.MustBuild[block](
	participle.Lexer(dslLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
)

// text returns the scalar value of a pair, or an error for lists.
func (v *value) text() (string, bool) {
	switch {
	case v.Str != nil:
		return *v.Str, true
	case v.Word != nil:
		return *v.Word, true
	default:
		return "", false
	}
}

// ParseStatement parses every annotation block in a statement comment.
// Blocks carrying a field key return as per-field overrides under that
// field name; the remaining blocks configure the statement itself.
func ParseStatement(statement, comment string) (*StatementOverrides, map[string]*FieldOverrides, error) {
	ctx := fmt.Sprintf("statement %q", statement)
	so := &StatementOverrides{}
	fields := make(map[string]*FieldOverrides)
	bs, err := blocksOf(ctx, comment)
	if err != nil {
		return nil, nil, err
	}
	for _, raw := range bs {
		b, err := dslParser.ParseString("", raw)
		if err != nil {
			return nil, nil, NewParseError(ctx, "", "malformed annotation block", err)
		}
		if err := checkDuplicates(ctx, b); err != nil {
			return nil, nil, err
		}
		name, err := fieldAssociation(ctx, b)
		if err != nil {
			return nil, nil, err
		}
		if name == "" {
			if err := applyStatementBlock(ctx, b, so); err != nil {
				return nil, nil, err
			}
			continue
		}
		fo := &FieldOverrides{}
		for _, p := range b.Pairs {
			if p.Key == keyField {
				continue
			}
			if err := applyFieldKey(ctx, p, fo); err != nil {
				return nil, nil, err
			}
		}
		fields[name] = Merge(fields[name], fo)
	}
	return so, fields, nil
}

// ParseColumn parses the annotation blocks of a table column comment.
// It returns nil when the comment carries no blocks. Column comments
// accept only the keys that describe the column itself; mapping keys
// anchor to statements and are rejected here.
func ParseColumn(table, column, comment string) (*FieldOverrides, error) {
	ctx := fmt.Sprintf("column %s.%s", table, column)
	bs, err := blocksOf(ctx, comment)
	if err != nil {
		return nil, err
	}
	if len(bs) == 0 {
		return nil, nil
	}
	var fo *FieldOverrides
	for _, raw := range bs {
		b, err := dslParser.ParseString("", raw)
		if err != nil {
			return nil, NewParseError(ctx, "", "malformed annotation block", err)
		}
		if err := checkDuplicates(ctx, b); err != nil {
			return nil, err
		}
		next := &FieldOverrides{}
		for _, p := range b.Pairs {
			switch p.Key {
			case keyPropertyName, keyPropertyType, keyNotNull, keyAdapter, keyDefaultValue:
				if err := applyFieldKey(ctx, p, next); err != nil {
					return nil, err
				}
			case keyField, keyDynamic, keyMappingType, keySourceTable, keyRemoveAliasPrefix, keyUniqueKey:
				return nil, NewParseError(ctx, p.Key, "not allowed in a column comment", nil)
			default:
				if statementKey(p.Key) {
					return nil, NewParseError(ctx, p.Key, "not allowed in a column comment", nil)
				}
				return nil, NewParseError(ctx, p.Key, "unknown annotation key", nil)
			}
		}
		fo = Merge(fo, next)
	}
	return fo, nil
}

// blocksOf extracts the raw annotation blocks of a comment, each
// including its enclosing braces. Text outside blocks is free prose
// and ignored.
func blocksOf(ctx, comment string) ([]string, error) {
	var out []string
	for rest := comment; ; {
		i := strings.Index(rest, marker)
		if i < 0 {
			return out, nil
		}
		start := i + len(marker) - 1
		end, ok := matchBrace(rest, start)
		if !ok {
			return nil, NewParseError(ctx, "", "unterminated annotation block", nil)
		}
		out = append(out, stripDecoration(rest[start:end+1]))
		rest = rest[end+1:]
	}
}

// stripDecoration removes the comment markers of continuation lines
// from a block that spans lines: "--" in SQL comments, "//" and a
// leading "*" in block comments.
func stripDecoration(raw string) string {
	if !strings.ContainsRune(raw, '\n') {
		return raw
	}
	lines := strings.Split(raw, "\n")
	for i, l := range lines[1:] {
		t := strings.TrimLeft(l, " \t")
		switch {
		case strings.HasPrefix(t, "--"), strings.HasPrefix(t, "//"):
			t = t[2:]
		case strings.HasPrefix(t, "*"):
			t = t[1:]
		default:
			continue
		}
		lines[i+1] = t
	}
	return strings.Join(lines, "\n")
}

// matchBrace finds the closing brace of the block opened at start,
// skipping over quoted strings.
func matchBrace(s string, start int) (int, bool) {
	inStr := false
	for i := start; i < len(s); i++ {
		switch c := s[i]; {
		case inStr:
			if c == '\\' {
				i++
			} else if c == '"' {
				inStr = false
			}
		case c == '"':
			inStr = true
		case c == '}':
			return i, true
		}
	}
	return 0, false
}

func checkDuplicates(ctx string, b *block) error {
	seen := make(map[string]struct{}, len(b.Pairs))
	for _, p := range b.Pairs {
		if _, ok := seen[p.Key]; ok {
			return NewParseError(ctx, p.Key, "duplicate key in annotation block", nil)
		}
		seen[p.Key] = struct{}{}
	}
	return nil
}

// fieldAssociation returns the field a block anchors to. A block
// without one must not carry field-scope keys: there is nothing to
// attach them to.
func fieldAssociation(ctx string, b *block) (string, error) {
	for _, p := range b.Pairs {
		if p.Key != keyField {
			continue
		}
		name, ok := p.Value.text()
		if !ok || name == "" {
			return "", NewParseError(ctx, keyField, "blank field name", nil)
		}
		return name, nil
	}
	for _, p := range b.Pairs {
		if !fieldScopeKey(p.Key) {
			continue
		}
		msg := "requires a field association (field=<name>)"
		if p.Key == keyMappingType {
			if v, ok := p.Value.text(); ok {
				msg = fmt.Sprintf("a field association (field=<name>) is required for %s mapping", v)
			}
		}
		return "", NewParseError(ctx, p.Key, msg, nil)
	}
	return "", nil
}

func fieldScopeKey(k string) bool {
	switch k {
	case keyPropertyName, keyPropertyType, keyNotNull, keyAdapter, keyDynamic,
		keyMappingType, keySourceTable, keyRemoveAliasPrefix, keyDefaultValue, keyUniqueKey:
		return true
	}
	return false
}

func statementKey(k string) bool {
	switch k {
	case keyResultName, keySharedResult, keyImplements, keyExcludeOverride, keyPolicy, keyCollectionKey:
		return true
	}
	return false
}

func applyStatementBlock(ctx string, b *block, so *StatementOverrides) error {
	for _, p := range b.Pairs {
		switch p.Key {
		case keyResultName:
			v, err := scalar(ctx, p)
			if err != nil {
				return err
			}
			so.ResultName = v
		case keySharedResult:
			v, err := scalar(ctx, p)
			if err != nil {
				return err
			}
			so.SharedResult = v
		case keyImplements:
			v, err := scalar(ctx, p)
			if err != nil {
				return err
			}
			so.Implements = v
		case keyCollectionKey:
			v, err := scalar(ctx, p)
			if err != nil {
				return err
			}
			so.CollectionKey = v
		case keyPolicy:
			v, err := scalar(ctx, p)
			if err != nil {
				return err
			}
			switch v {
			case "plain":
				so.Policy = PolicyPlain
			case "lowerCamelCase":
				so.Policy = PolicyLowerCamel
			default:
				return NewParseError(ctx, p.Key, fmt.Sprintf("unknown naming policy %q", v), nil)
			}
		case keyExcludeOverride:
			if p.Value.List == nil {
				return NewParseError(ctx, p.Key, "expected a list, e.g. [a, b]", nil)
			}
			so.ExcludeOverrideFields = append([]string{}, p.Value.List.Items...)
		default:
			if fieldScopeKey(p.Key) {
				// Unreachable past fieldAssociation, kept for safety.
				return NewParseError(ctx, p.Key, "requires a field association (field=<name>)", nil)
			}
			return NewParseError(ctx, p.Key, "unknown annotation key", nil)
		}
	}
	return nil
}

func applyFieldKey(ctx string, p *pair, fo *FieldOverrides) error {
	switch p.Key {
	case keyPropertyName:
		v, err := scalar(ctx, p)
		if err != nil {
			return err
		}
		fo.PropertyName = v
	case keyPropertyType:
		v, err := scalar(ctx, p)
		if err != nil {
			return err
		}
		fo.PropertyType = v
	case keySourceTable:
		v, err := scalar(ctx, p)
		if err != nil {
			return err
		}
		fo.SourceAlias = v
	case keyRemoveAliasPrefix:
		v, err := scalar(ctx, p)
		if err != nil {
			return err
		}
		fo.RemoveAliasPrefix = v
	case keyUniqueKey:
		v, err := scalar(ctx, p)
		if err != nil {
			return err
		}
		fo.UniqueKey = v
	case keyDefaultValue:
		// An empty default is meaningful, so blankness is allowed.
		v, ok := p.Value.text()
		if !ok {
			return NewParseError(ctx, p.Key, "expected a scalar value", nil)
		}
		fo.DefaultValue = v
	case keyNotNull:
		v, err := boolean(ctx, p)
		if err != nil {
			return err
		}
		fo.NotNull = &v
	case keyDynamic:
		v, err := boolean(ctx, p)
		if err != nil {
			return err
		}
		fo.Dynamic = v
	case keyAdapter:
		v, err := scalar(ctx, p)
		if err != nil {
			return err
		}
		switch v {
		case "default":
			fo.Adapter = AdapterDefault
		case "custom":
			fo.Adapter = AdapterCustom
		default:
			return NewParseError(ctx, p.Key, fmt.Sprintf("unknown adapter mode %q", v), nil)
		}
	case keyMappingType:
		v, err := scalar(ctx, p)
		if err != nil {
			return err
		}
		switch v {
		case "entity":
			fo.Mapping = MappingEntity
		case "perRow":
			fo.Mapping = MappingPerRow
		case "collection":
			fo.Mapping = MappingCollection
		default:
			return NewParseError(ctx, p.Key, fmt.Sprintf("unknown mapping type %q", v), nil)
		}
	default:
		if statementKey(p.Key) {
			return NewParseError(ctx, p.Key, "statement key inside a field block", nil)
		}
		return NewParseError(ctx, p.Key, "unknown annotation key", nil)
	}
	return nil
}

// scalar returns the non-blank scalar value of a pair.
func scalar(ctx string, p *pair) (string, error) {
	v, ok := p.Value.text()
	if !ok {
		return "", NewParseError(ctx, p.Key, "expected a scalar value", nil)
	}
	if v == "" {
		return "", NewParseError(ctx, p.Key, "blank value", nil)
	}
	return v, nil
}

func boolean(ctx string, p *pair) (bool, error) {
	v, ok := p.Value.text()
	if !ok {
		return false, NewParseError(ctx, p.Key, "expected true or false", nil)
	}
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, NewParseError(ctx, p.Key, fmt.Sprintf("expected true or false, got %q", v), nil)
	}
}
