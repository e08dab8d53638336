package prune

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrune_Output(t *testing.T) {
	tests := []struct {
		name string
		path string
		src  string
		want string
	}{
		{
			name: "declarator list keeps middle",
			src:  "let a = 1, b = 2, c = 3;\nexport { b };\n",
			want: "let b = 2;\nexport { b };\n",
		},
		{
			name: "declarator list keeps first",
			src:  "let a = 1, b = 2, c = 3;\nexport { a };\n",
			want: "let a = 1;\nexport { a };\n",
		},
		{
			name: "declarator list keeps last",
			src:  "let a = 1, b = 2, c = 3;\nexport { c };\n",
			want: "let c = 3;\nexport { c };\n",
		},
		{
			name: "declarator list keeps ends",
			src:  "let a = 1, b = 2, c = 3;\nexport { a, c };\n",
			want: "let a = 1, c = 3;\nexport { a, c };\n",
		},
		{
			name: "default and named specifiers",
			src:  "import React, { useState, useRef } from 'react';\nexport const s = useState;\n",
			want: "import { useState } from 'react';\nexport const s = useState;\n",
		},
		{
			name: "dead named imports behind live default",
			src:  "import D, { x } from 'm';\nexport const v = D;\n",
			want: "import D from 'm';\nexport const v = D;\n",
		},
		{
			name: "dead namespace behind live default",
			src:  "import D, * as NS from 'm';\nexport const v = D;\n",
			want: "import D from 'm';\nexport const v = D;\n",
		},
		{
			name: "dead default before live namespace",
			src:  "import D, * as NS from 'm';\nexport const v = NS;\n",
			want: "import * as NS from 'm';\nexport const v = NS;\n",
		},
		{
			name: "renamed specifier",
			src:  "import { a, b as c } from 'm';\nexport const v = c;\n",
			want: "import { b as c } from 'm';\nexport const v = c;\n",
		},
		{
			name: "empty import removed",
			src:  "import { a } from 'm';\nexport const v = 1;\n",
			want: "export const v = 1;\n",
		},
		{
			name: "side-effect imports kept",
			src:  "import './a.css';\nimport {} from './b';\nexport const v = 1;\n",
			want: "import './a.css';\nimport {} from './b';\nexport const v = 1;\n",
		},
		{
			name: "trailing comment removed with statement",
			src:  "const dead = 1; // gone\nexport const v = 2;\n",
			want: "export const v = 2;\n",
		},
		{
			name: "leading comment kept",
			src:  "// about dead\nconst dead = 1;\nexport const v = 2;\n",
			want: "// about dead\nexport const v = 2;\n",
		},
		{
			name: "blank lines collapse",
			src:  "export const a = 1;\n\nconst dead = 2;\n\nexport const b = 3;\n",
			want: "export const a = 1;\n\nexport const b = 3;\n",
		},
		{
			name: "shared line",
			src:  "export const a = 1; const dead = 2;\n",
			want: "export const a = 1; \n",
		},
		{
			name: "default export identifier",
			src:  "function Page() {}\nfunction Other() {}\nexport default Page;\n",
			want: "function Page() {}\nexport default Page;\n",
		},
		{
			name: "classes",
			src:  "class Helper {}\nexport class Main extends Base {}\n",
			want: "export class Main extends Base {}\n",
		},
		{
			name: "enums",
			path: "mod.ts",
			src:  "enum Color { Red }\nenum Size { S }\nexport const c = Color.Red;\n",
			want: "enum Color { Red }\nexport const c = Color.Red;\n",
		},
		{
			name: "type-space kept",
			path: "mod.ts",
			src:  "import type { T } from './t';\nimport { unused } from './u';\ninterface P { t: T }\nexport function f(p: P) { return p; }\n",
			want: "import type { T } from './t';\ninterface P { t: T }\nexport function f(p: P) { return p; }\n",
		},
		{
			name: "re-exports kept",
			src:  "export { x } from './x';\nexport * from './y';\nconst dead = 1;\n",
			want: "export { x } from './x';\nexport * from './y';\n",
		},
		{
			name: "top-level statements are roots",
			src:  "function init() {}\nfunction unused() {}\ninit();\n",
			want: "function init() {}\ninit();\n",
		},
		{
			name: "shadowed declarations removed together",
			src:  "var x = 1;\nvar x = 2;\nexport const y = 3;\n",
			want: "export const y = 3;\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if path == "" {
				path = "mod.js"
			}
			res := transformString(t, path, tt.src, DefaultOptions())
			assert.Equal(t, tt.want, string(res.Output))
		})
	}
}

func TestPrune_RemovedBindings(t *testing.T) {
	src := "import { a, b } from 'm';\nfunction helper() {}\nexport const v = a;\n"
	res := transformString(t, "mod.js", src, DefaultOptions())

	assert.Equal(t, []RemovedBinding{
		{Name: "b", Kind: KindImport, Line: 1},
		{Name: "helper", Kind: KindFunction, Line: 2},
	}, res.Removed)
	assert.Equal(t, []string{"a", "v"}, res.Live)
	assert.True(t, res.Changed)
}

func TestPrune_Inconsistent(t *testing.T) {
	result := parseModule(t, "mod.js", "const a = 1;\nexport { a };\n")
	catalog, err := BuildCatalog(result)
	require.NoError(t, err)
	g := BuildGraph(result, catalog, nil)

	empty := &LiveSet{bitmap: roaring.New(), graph: g}
	_, _, err = Prune(result, catalog, empty)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInconsistent)
	assert.Equal(t, "a", Identifier(err))
}

func TestExpandToLine(t *testing.T) {
	src := []byte("a\n\n  stmt;  \n\nb")
	start := uint32(5)
	end := uint32(10)
	require.Equal(t, "stmt;", string(src[start:end]))

	ls, le := expandToLine(src, start, end)
	assert.Equal(t, "  stmt;  \n\n", string(src[ls:le]))
}
