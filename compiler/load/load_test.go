package load

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	assert.Equal(t, "findPerson", Name(&Select{Name: "findPerson"}))
	assert.Equal(t, "insertPerson", Name(&Execute{Name: "insertPerson"}))
	assert.Equal(t, "person", Name(&CreateTable{Table: &Table{Name: "person"}}))
	assert.Equal(t, "person_view", Name(&CreateView{View: &View{Name: "person_view"}}))
	assert.Empty(t, Name(&CreateTable{}))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindSelect, KindOf(&Select{}))
	assert.Equal(t, KindExecute, KindOf(&Execute{}))
	assert.Equal(t, KindCreateTable, KindOf(&CreateTable{}))
	assert.Equal(t, KindCreateView, KindOf(&CreateView{}))
}

func TestValidate(t *testing.T) {
	t.Run("Select", func(t *testing.T) {
		s := &Select{
			Name:    "findPerson",
			Aliases: []*AliasDecl{{Alias: "p", Table: "person"}},
			Fields:  []*Field{{Name: "p_id", Alias: "p", Column: "id"}},
		}
		require.NoError(t, Validate(s))
	})
	t.Run("SelectEmptyProjection", func(t *testing.T) {
		err := Validate(&Select{Name: "findPerson"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty projection")
	})
	t.Run("SelectDuplicateAlias", func(t *testing.T) {
		s := &Select{
			Name: "findPerson",
			Aliases: []*AliasDecl{
				{Alias: "p", Table: "person"},
				{Alias: "p", Table: "address"},
			},
			Fields: []*Field{{Name: "p_id"}},
		}
		err := Validate(s)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate alias "p"`)
	})
	t.Run("SelectInvalidName", func(t *testing.T) {
		err := Validate(&Select{Name: "1st", Fields: []*Field{{Name: "id"}}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid name "1st"`)
	})
	t.Run("ExecuteMissingParamName", func(t *testing.T) {
		err := Validate(&Execute{Name: "insertPerson", Params: []*Param{{Column: "id"}}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parameter without a name")
	})
	t.Run("TableDuplicateColumn", func(t *testing.T) {
		err := Validate(&CreateTable{Table: &Table{
			Name:    "person",
			Columns: []*Column{{Name: "id"}, {Name: "id"}},
		}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate column "id"`)
	})
	t.Run("TableNoColumns", func(t *testing.T) {
		err := Validate(&CreateTable{Table: &Table{Name: "person"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no columns")
	})
	t.Run("ViewDuplicateField", func(t *testing.T) {
		err := Validate(&CreateView{View: &View{
			Name:   "person_view",
			Fields: []*ViewField{{Name: "id"}, {Name: "id"}},
		}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate field "id"`)
	})
	t.Run("MissingPayload", func(t *testing.T) {
		require.Error(t, Validate(&CreateTable{}))
		require.Error(t, Validate(&CreateView{}))
	})
}

func TestStatementRoundTrip(t *testing.T) {
	stmts := []Statement{
		&Select{
			Name:    "findPerson",
			Comment: "@@{ queryResult=PersonRow }",
			Aliases: []*AliasDecl{{Alias: "p", Table: "person"}},
			Joins:   []*JoinCond{{LeftAlias: "p", LeftColumn: "id", RightAlias: "a", RightColumn: "person_id"}},
			Fields:  []*Field{{Name: "p_id", Alias: "p", Column: "id"}},
		},
		&Execute{
			Name:   "insertPerson",
			Table:  "person",
			Params: []*Param{{Name: "firstName", Column: "first_name"}, {Name: "ids", Column: "id", In: true}},
		},
		&CreateTable{Table: &Table{
			Name: "person",
			Columns: []*Column{
				{Name: "id", Type: "integer", NotNull: true, PrimaryKey: true},
				{Name: "first_name", Type: "text"},
			},
		}},
		&CreateView{View: &View{
			Name:   "person_view",
			Fields: []*ViewField{{Name: "id", Source: "person", Column: "id"}},
		}},
	}
	for _, s := range stmts {
		t.Run(KindOf(s), func(t *testing.T) {
			buf, err := MarshalStatement(s)
			require.NoError(t, err)
			got, err := UnmarshalStatement(buf)
			require.NoError(t, err)
			assert.Equal(t, s, got)
		})
	}
}

func TestUnmarshalStatement(t *testing.T) {
	t.Run("UnknownKind", func(t *testing.T) {
		_, err := UnmarshalStatement([]byte(`{"kind":"drop_table"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown statement kind "drop_table"`)
	})
	t.Run("MissingPayload", func(t *testing.T) {
		_, err := UnmarshalStatement([]byte(`{"kind":"select"}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "without a payload")
	})
}

func TestDocumentRoundTrip(t *testing.T) {
	d := &Document{
		Namespace: "person",
		Statements: []Statement{
			&CreateTable{Table: &Table{Name: "person", Columns: []*Column{{Name: "id", Type: "integer"}}}},
			&Select{Name: "findPerson", Fields: []*Field{{Name: "id"}}},
		},
	}
	buf, err := MarshalDocument(d)
	require.NoError(t, err)
	got, err := UnmarshalDocument(buf)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestUnmarshalDocument(t *testing.T) {
	t.Run("MissingNamespace", func(t *testing.T) {
		_, err := UnmarshalDocument([]byte(`{"statements":[]}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "without a namespace")
	})
	t.Run("InvalidStatement", func(t *testing.T) {
		_, err := UnmarshalDocument([]byte(`{"namespace":"person","statements":[{"kind":"select","select":{"name":"q"}}]}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty projection")
	})
}

func TestCollect(t *testing.T) {
	ns := make(Namespaces)
	ns.Add("zoo", &Select{Name: "b", Fields: []*Field{{Name: "id"}}})
	ns.Add("zoo", &Select{Name: "a", Fields: []*Field{{Name: "id"}}})
	ns.Add("app", &Execute{Name: "c"})

	got, err := Collect(ns)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "app", got[0].Name)
	assert.Equal(t, "zoo", got[1].Name)
	assert.Equal(t, "a", Name(got[1].Statements[0]))
	assert.Equal(t, "b", Name(got[1].Statements[1]))
}

type panicProvider struct{}

func (panicProvider) Namespaces() []string { return []string{"boom"} }

func (panicProvider) Statements(string) ([]Statement, error) { panic("statements exploded") }

func TestCollectRecovers(t *testing.T) {
	_, err := Collect(panicProvider{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panics")
	assert.Contains(t, err.Error(), "statements exploded")
}

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	doc := `{
  "namespace": "person",
  "statements": [
    {"kind": "create_table", "create_table": {"table": {"name": "person", "columns": [{"name": "id", "type": "integer"}]}}}
  ]
}`
	path := filepath.Join(dir, "person.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	ns, err := ReadFiles(path)
	require.NoError(t, err)
	stmts, err := ns.Statements("person")
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, "person", Name(stmts[0]))

	t.Run("MissingFile", func(t *testing.T) {
		_, err := ReadFiles(filepath.Join(dir, "absent.json"))
		require.Error(t, err)
	})
	t.Run("UnknownNamespace", func(t *testing.T) {
		_, err := ns.Statements("ghost")
		require.Error(t, err)
	})
}
