package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "collapses whitespace runs",
			input: "SELECT   *\n\tFROM    users",
			want:  "SELECT * FROM USERS",
		},
		{
			name:  "case folds",
			input: "select * from Users",
			want:  "SELECT * FROM USERS",
		},
		{
			name:  "trims ends",
			input: "  SELECT 1  \n",
			want:  "SELECT 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestHashFormattingInvariance(t *testing.T) {
	// Reformatting must never change a script's identity.
	variants := []string{
		"SELECT * FROM users WHERE active = 1",
		"select * from users where active = 1",
		"SELECT *\n  FROM users\n  WHERE active = 1",
		"  SELECT  *  FROM  users  WHERE  active = 1  ",
	}

	base := Hash(variants[0])
	for _, v := range variants[1:] {
		assert.Equal(t, base, Hash(v), "variant %q should hash the same", v)
	}

	assert.NotEqual(t, base, Hash("SELECT * FROM orders WHERE active = 1"))
}

func TestSet(t *testing.T) {
	s := NewSet()
	h := Hash("SELECT 1 FROM dual")

	assert.False(t, s.Seen(h))
	assert.True(t, s.Record(h))
	assert.True(t, s.Seen(h))
	assert.False(t, s.Record(h), "second record of the same digest is not new")
	assert.Equal(t, 1, s.Len())
}
