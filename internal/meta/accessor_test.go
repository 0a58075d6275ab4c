package meta

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/screens/pkg/types"
)

func TestCoerce(t *testing.T) {
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		md      types.FieldMetadata
		in      any
		want    any
		wantErr bool
	}{
		{"text nil", types.FieldMetadata{Kind: types.KindText}, nil, "", false},
		{"text", types.FieldMetadata{Kind: types.KindText}, "x", "x", false},
		{"text from int", types.FieldMetadata{Kind: types.KindText}, 3, nil, true},
		{"number int", types.FieldMetadata{Kind: types.KindNumber}, 3, float64(3), false},
		{"number string", types.FieldMetadata{Kind: types.KindNumber}, " 2.5 ", 2.5, false},
		{"number empty string", types.FieldMetadata{Kind: types.KindNumber}, "", float64(0), false},
		{"number garbage", types.FieldMetadata{Kind: types.KindNumber}, "lots", nil, true},
		{"integer fraction", types.FieldMetadata{Kind: types.KindNumber, Integer: true}, 1.5, nil, true},
		{"boolean string", types.FieldMetadata{Kind: types.KindBoolean}, "true", true, false},
		{"boolean nil", types.FieldMetadata{Kind: types.KindBoolean}, nil, false, false},
		{"date string", types.FieldMetadata{Kind: types.KindDate}, "2026-10-19", day, false},
		{"date pointer", types.FieldMetadata{Kind: types.KindDate}, &day, day, false},
		{"date zero", types.FieldMetadata{Kind: types.KindDate}, time.Time{}, nil, false},
		{"date garbage", types.FieldMetadata{Kind: types.KindDate}, "19/10/2026", nil, true},
		{"collection nil", types.FieldMetadata{Kind: types.KindCollection}, nil, nil, false},
		{"collection empty", types.FieldMetadata{Kind: types.KindCollection}, []any{}, []any{}, false},
		{"collection scalar", types.FieldMetadata{Kind: types.KindCollection}, "x", nil, true},
		{"unknown kind", types.FieldMetadata{Kind: "blob"}, "x", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.md, tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty(float64(0)))
	assert.True(t, IsEmpty(false))
	assert.True(t, IsEmpty([]any{}))
	assert.False(t, IsEmpty("a"))
	assert.False(t, IsEmpty(&types.User{}))
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Start date", humanize("startDate"))
	assert.Equal(t, "Name", humanize("name"))
	assert.Equal(t, "Due date", humanize("due_date"))
}

func TestSchemaClone(t *testing.T) {
	s := UserSchema()
	u := &types.User{Name: "Ada"}
	c := s.Clone(u).(*types.User)
	c.Name = "Grace"
	assert.Equal(t, "Ada", u.Name)
	assert.Nil(t, s.Clone(&types.Company{}))
	_, ok := s.New().(*types.User)
	assert.True(t, ok)
}
