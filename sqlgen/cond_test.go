package sqlgen_test

import (
	"testing"

	"github.com/NachosDevs/datamodel/sqlgen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// renderWhere compiles a trivial select around the condition and returns the
// WHERE part plus binds.
func renderWhere(t *testing.T, c *sqlgen.Cond) (string, []interface{}) {
	t.Helper()
	b := sqlgen.NewBuilder("sqlite")
	compiled, err := b.Select(sqlgen.SelectParams{From: sqlgen.NewFrom("t"), Where: c})
	require.NoError(t, err)
	return compiled.SQL, compiled.Bind
}

func TestCond_Rendering(t *testing.T) {
	tests := []struct {
		name     string
		cond     *sqlgen.Cond
		wantSQL  string
		wantBind []interface{}
	}{
		{
			name:     "equality",
			cond:     sqlgen.Eq("name", "Hlagh"),
			wantSQL:  `"name" = ?`,
			wantBind: []interface{}{"Hlagh"},
		},
		{
			name:     "comparison operator",
			cond:     sqlgen.C("age", ">=", 21),
			wantSQL:  `"age" >= ?`,
			wantBind: []interface{}{21},
		},
		{
			name:    "equality with nil becomes IS NULL",
			cond:    sqlgen.Eq("deleted_at", nil),
			wantSQL: `"deleted_at" IS NULL`,
		},
		{
			name:    "inequality with nil becomes IS NOT NULL",
			cond:    sqlgen.C("deleted_at", "!=", nil),
			wantSQL: `"deleted_at" IS NOT NULL`,
		},
		{
			name:     "like",
			cond:     sqlgen.Like("name", "H%"),
			wantSQL:  `"name" LIKE ?`,
			wantBind: []interface{}{"H%"},
		},
		{
			name:     "in list",
			cond:     sqlgen.In("dpt_id", 1, 2, 3),
			wantSQL:  `"dpt_id" IN (?, ?, ?)`,
			wantBind: []interface{}{1, 2, 3},
		},
		{
			name:    "empty in list is always false",
			cond:    sqlgen.In("dpt_id"),
			wantSQL: "0=1",
		},
		{
			name:     "not in list",
			cond:     sqlgen.NotIn("dpt_id", 4),
			wantSQL:  `"dpt_id" NOT IN (?)`,
			wantBind: []interface{}{4},
		},
		{
			name:    "empty not-in list is always true",
			cond:    sqlgen.NotIn("dpt_id"),
			wantSQL: "1=1",
		},
		{
			name:    "is null",
			cond:    sqlgen.IsNull("manager_id"),
			wantSQL: `"manager_id" IS NULL`,
		},
		{
			name:    "is not null",
			cond:    sqlgen.IsNotNull("manager_id"),
			wantSQL: `"manager_id" IS NOT NULL`,
		},
		{
			name:     "and",
			cond:     sqlgen.And(sqlgen.Eq("a", 1), sqlgen.Eq("b", 2)),
			wantSQL:  `("a" = ? AND "b" = ?)`,
			wantBind: []interface{}{1, 2},
		},
		{
			name:     "or",
			cond:     sqlgen.Or(sqlgen.Eq("a", 1), sqlgen.Eq("b", 2)),
			wantSQL:  `("a" = ? OR "b" = ?)`,
			wantBind: []interface{}{1, 2},
		},
		{
			name:     "not",
			cond:     sqlgen.Not(sqlgen.Eq("a", 1)),
			wantSQL:  `NOT ("a" = ?)`,
			wantBind: []interface{}{1},
		},
		{
			name:     "raw fragment",
			cond:     sqlgen.Raw("lastname = SUBSTR(?, 1, 8)", "Schwartzenegger"),
			wantSQL:  "lastname = SUBSTR(?, 1, 8)",
			wantBind: []interface{}{"Schwartzenegger"},
		},
		{
			name: "subquery fragment as comparison value",
			cond: sqlgen.C("dpt_id", "IN", sqlgen.Fragment{
				SQL:  `SELECT "dpt_id" FROM "dpt" WHERE "active" = ?`,
				Bind: []interface{}{1},
			}),
			wantSQL:  `"dpt_id" IN (SELECT "dpt_id" FROM "dpt" WHERE "active" = ?)`,
			wantBind: []interface{}{1},
		},
		{
			name:     "nested tree",
			cond:     sqlgen.And(sqlgen.Eq("a", 1), sqlgen.Or(sqlgen.Eq("b", 2), sqlgen.Eq("c", 3))),
			wantSQL:  `("a" = ? AND ("b" = ? OR "c" = ?))`,
			wantBind: []interface{}{1, 2, 3},
		},
		{
			name:     "qualified field names quote each segment",
			cond:     sqlgen.Eq("emp.dpt_id", 9),
			wantSQL:  `"emp"."dpt_id" = ?`,
			wantBind: []interface{}{9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSQL, gotBind := renderWhere(t, tt.cond)
			assert.Contains(t, gotSQL, "WHERE "+tt.wantSQL)
			if tt.wantBind == nil {
				assert.Empty(t, gotBind)
			} else {
				assert.Equal(t, tt.wantBind, gotBind)
			}
		})
	}
}

func TestCond_AndSkipsNils(t *testing.T) {
	single := sqlgen.Eq("a", 1)

	assert.Nil(t, sqlgen.And())
	assert.Nil(t, sqlgen.And(nil, nil))
	assert.Same(t, single, sqlgen.And(nil, single))
}

func TestCond_Merge(t *testing.T) {
	a := sqlgen.Eq("a", 1)
	b := sqlgen.Eq("b", 2)

	assert.Same(t, a, sqlgen.Merge(a, nil))
	assert.Same(t, b, sqlgen.Merge(nil, b))
	assert.Nil(t, sqlgen.Merge(nil, nil))

	merged := sqlgen.Merge(a, b)
	require.NotNil(t, merged)
	assert.Equal(t, sqlgen.CondAnd, merged.Kind)
	assert.Len(t, merged.Subs, 2)
}

func TestCond_Clone(t *testing.T) {
	orig := sqlgen.And(sqlgen.Eq("a", 1), sqlgen.In("b", 2, 3))
	clone := orig.Clone()

	require.NotSame(t, orig, clone)
	clone.Subs[0].Field = "changed"
	clone.Subs[1].Values[0] = 99

	assert.Equal(t, "a", orig.Subs[0].Field)
	assert.Equal(t, 2, orig.Subs[1].Values[0])
}

func TestParam(t *testing.T) {
	assert.Equal(t, "?:user_id", sqlgen.Param("user_id"))
}
