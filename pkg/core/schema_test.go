package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Lookup(t *testing.T) {
	s := NewSchema(
		Table{Name: "users", Columns: []Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true},
			{Name: "name", Type: "TEXT"},
		}},
		Table{Name: "orders", Columns: []Column{{Name: "id", Type: "INTEGER"}}},
	)

	assert.Equal(t, []string{"users", "orders"}, s.Names(), "declaration order is kept")

	users, ok := s.Table("users")
	require.True(t, ok)
	assert.Len(t, users.PrimaryKeys(), 1)
	assert.Equal(t, []string{"id", "name"}, users.ColumnNames())

	col, ok := users.Column("name")
	require.True(t, ok)
	assert.Equal(t, "TEXT", col.UpperType())

	assert.False(t, s.HasTable("Users"), "table lookup is exact")
	assert.NoError(t, s.Validate())
}

func TestSchema_Validate(t *testing.T) {
	s := NewSchema(
		Table{Name: "t", Columns: []Column{{Name: "a"}, {Name: "a"}}},
		Table{Name: "t"},
	)

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate column "a"`)
	assert.Contains(t, err.Error(), `duplicate table "t"`)
}

func TestSchema_Nil(t *testing.T) {
	var s *Schema
	assert.False(t, s.HasTable("x"))
	assert.Nil(t, s.Names())
	assert.NoError(t, s.Validate())
}
