package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlbind/compiler/load"
	"github.com/syssam/sqlbind/dialect"
	"github.com/syssam/sqlbind/schema/sqltype"
)

func testSchema(t *testing.T, d string, stmts ...load.Statement) *schemaIndex {
	t.Helper()
	s := newSchemaIndex(d)
	for _, st := range stmts {
		switch st := st.(type) {
		case *load.CreateTable:
			require.NoError(t, s.addTable(st.Table))
		case *load.CreateView:
			require.NoError(t, s.addView(st.View))
		}
	}
	require.NoError(t, s.finalize())
	return s
}

func personTable() *load.CreateTable {
	return &load.CreateTable{Table: &load.Table{
		Name: "person",
		Columns: []*load.Column{
			{Name: "id", Type: "integer", PrimaryKey: true},
			{Name: "first_name", Type: "text", NotNull: true},
			{Name: "last_name", Type: "text", NotNull: true},
			{Name: "age", Type: "integer"},
			{Name: "created_at", Type: "timestamp", NotNull: true},
		},
	}}
}

func addressTable() *load.CreateTable {
	return &load.CreateTable{Table: &load.Table{
		Name: "address",
		Columns: []*load.Column{
			{Name: "id", Type: "integer", PrimaryKey: true},
			{Name: "person_id", Type: "integer", NotNull: true},
			{Name: "street", Type: "text", NotNull: true},
			{Name: "city", Type: "text"},
		},
	}}
}

func TestSchemaIndex(t *testing.T) {
	t.Run("Declared", func(t *testing.T) {
		s := testSchema(t, dialect.SQLite, personTable(), addressTable())
		assert.True(t, s.declared("person"))
		assert.True(t, s.declared("address"))
		assert.False(t, s.declared("p"))
		assert.Equal(t, []string{"address", "person"}, s.objectNames())
	})
	t.Run("DuplicateTable", func(t *testing.T) {
		s := newSchemaIndex(dialect.SQLite)
		require.NoError(t, s.addTable(personTable().Table))
		err := s.addTable(personTable().Table)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownObject)
		assert.Contains(t, err.Error(), "declared twice")
	})
	t.Run("Nullability", func(t *testing.T) {
		s := testSchema(t, dialect.SQLite, personTable())
		p := s.tables["person"]
		byName := make(map[string]*column)
		for _, c := range p.list {
			byName[c.def.Name] = c
		}
		assert.True(t, byName["id"].notNull, "primary key implies not null")
		assert.True(t, byName["first_name"].notNull)
		assert.False(t, byName["age"].notNull)
	})
	t.Run("SerialImpliesNotNull", func(t *testing.T) {
		s := testSchema(t, dialect.Postgres, &load.CreateTable{Table: &load.Table{
			Name:    "events",
			Columns: []*load.Column{{Name: "seq", Type: "bigserial"}},
		}})
		assert.True(t, s.tables["events"].list[0].notNull)
	})
	t.Run("ColumnAnnotations", func(t *testing.T) {
		s := testSchema(t, dialect.SQLite, &load.CreateTable{Table: &load.Table{
			Name: "billing",
			Columns: []*load.Column{
				{Name: "amount", Type: "integer", NotNull: true, Comment: "@@{ propertyType=types.Money }"},
			},
		}})
		over := s.tables["billing"].list[0].over
		require.NotNil(t, over)
		assert.Equal(t, "types.Money", over.PropertyType)
	})
}

func TestViewResolution(t *testing.T) {
	personView := &load.CreateView{View: &load.View{
		Name: "person_view",
		Fields: []*load.ViewField{
			{Name: "id", Source: "person"},
			{Name: "name", Source: "person", Column: "first_name"},
		},
	}}

	t.Run("TableBacked", func(t *testing.T) {
		s := testSchema(t, dialect.SQLite, personTable(), personView)
		v := s.views["person_view"]
		require.Len(t, v.list, 2)
		assert.Equal(t, "person", v.list[0].table.def.Name)
		assert.Equal(t, "id", v.list[0].col.def.Name)
		assert.True(t, v.list[0].notNull)
		assert.Equal(t, "first_name", v.list[1].col.def.Name)
	})
	t.Run("ViewOverView", func(t *testing.T) {
		// Declared before its dependency: finalize reorders.
		outer := &load.CreateView{View: &load.View{
			Name:   "outer_view",
			Fields: []*load.ViewField{{Name: "name", Source: "person_view"}},
		}}
		s := testSchema(t, dialect.SQLite, outer, personTable(), personView)
		f := s.views["outer_view"].list[0]
		assert.Equal(t, "person", f.table.def.Name)
		assert.Equal(t, "first_name", f.col.def.Name)
	})
	t.Run("Cycle", func(t *testing.T) {
		s := newSchemaIndex(dialect.SQLite)
		require.NoError(t, s.addView(&load.View{
			Name:   "a_view",
			Fields: []*load.ViewField{{Name: "x", Source: "b_view"}},
		}))
		require.NoError(t, s.addView(&load.View{
			Name:   "b_view",
			Fields: []*load.ViewField{{Name: "x", Source: "a_view"}},
		}))
		err := s.finalize()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "view dependency cycle")
		assert.Contains(t, err.Error(), "a_view")
		assert.Contains(t, err.Error(), "b_view")
	})
	t.Run("UnknownSource", func(t *testing.T) {
		s := newSchemaIndex(dialect.SQLite)
		require.NoError(t, s.addView(&load.View{
			Name:   "bad_view",
			Fields: []*load.ViewField{{Name: "x", Source: "nowhere"}},
		}))
		err := s.finalize()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownObject)
	})
	t.Run("UnknownColumn", func(t *testing.T) {
		s := newSchemaIndex(dialect.SQLite)
		require.NoError(t, s.addTable(personTable().Table))
		require.NoError(t, s.addView(&load.View{
			Name:   "bad_view",
			Fields: []*load.ViewField{{Name: "nick", Source: "person"}},
		}))
		err := s.finalize()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown column")
		assert.Contains(t, err.Error(), "first_name")
	})
	t.Run("ViewTypeOverride", func(t *testing.T) {
		typed := &load.CreateView{View: &load.View{
			Name:   "typed_view",
			Fields: []*load.ViewField{{Name: "age", Source: "person", Type: "text"}},
		}}
		s := testSchema(t, dialect.SQLite, personTable(), typed)
		f := s.views["typed_view"].list[0]
		m := s.resolveColumn(&lookup{
			alias:   "typed_view",
			aliases: map[string]string{},
			cands:   newCandidates("age", "", ""),
		})
		require.NotNil(t, m)
		assert.Equal(t, "aliasView", m.strategy)
		assert.Equal(t, "text", m.typeDecl)
		assert.Equal(t, f.col, m.col)
		assert.Equal(t, sqltype.TypeString, sqltype.FromSQL(dialect.SQLite, m.typeDecl).Type)
	})
}
