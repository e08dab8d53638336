package printer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	src := []byte("const a = 1;\nconst b = 2;\nexport { a };\n")

	tests := []struct {
		name  string
		edits []Edit
		want  string
	}{
		{
			name: "no edits",
			want: string(src),
		},
		{
			name:  "delete line",
			edits: []Edit{Delete(13, 26)},
			want:  "const a = 1;\nexport { a };\n",
		},
		{
			name:  "replace",
			edits: []Edit{Replace(10, 11, "null")},
			want:  "const a = null;\nconst b = 2;\nexport { a };\n",
		},
		{
			name:  "unsorted input",
			edits: []Edit{Replace(23, 24, "3"), Replace(10, 11, "0")},
			want:  "const a = 0;\nconst b = 3;\nexport { a };\n",
		},
		{
			name:  "contained edit is dropped",
			edits: []Edit{Replace(23, 24, "3"), Delete(13, 26)},
			want:  "const a = 1;\nexport { a };\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(src, tt.edits)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestApplyDoesNotAliasSource(t *testing.T) {
	src := []byte("abc")
	out, err := Apply(src, nil)
	require.NoError(t, err)
	out[0] = 'z'
	assert.Equal(t, "abc", string(src))
}

func TestApplyErrors(t *testing.T) {
	src := []byte("0123456789")

	_, err := Apply(src, []Edit{Delete(2, 6), Delete(4, 8)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOverlap))

	_, err = Apply(src, []Edit{Delete(8, 20)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	_, err = Apply(src, []Edit{{Start: 5, End: 3}})
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestNormalizeAdjacentEdits(t *testing.T) {
	edits, err := Normalize([]Edit{Delete(4, 6), Delete(2, 4)}, 10)
	require.NoError(t, err)
	require.Len(t, edits, 2)
	assert.Equal(t, uint32(2), edits[0].Start)
	assert.Equal(t, uint32(4), edits[1].Start)
}

func TestInsertionAtDeletionBoundary(t *testing.T) {
	src := []byte("let a, b;")
	// insert after `a` and delete `, b` which starts at the same offset
	got, err := Apply(src, []Edit{Delete(5, 8), Replace(5, 5, " = null")})
	require.NoError(t, err)
	assert.Equal(t, "let a = null;", string(got))

	got, err = Apply(src, []Edit{Delete(4, 5), Replace(5, 5, "x")})
	require.NoError(t, err)
	assert.Equal(t, "let x, b;", string(got))
}
