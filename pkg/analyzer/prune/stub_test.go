package prune

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func stubOptions() Options {
	opts := DefaultOptions()
	opts.StubExports = true
	return opts
}

func TestStubExports(t *testing.T) {
	src := `'use client';
import { db } from './db';

export async function load() {
  return db.query();
}

export const config = { db };
`
	want := `'use client';

export async function load() { return null; }

export const config = null;
`
	res := transformString(t, "page.ts", src, stubOptions())

	assert.Equal(t, want, string(res.Output))
	assert.Equal(t, []string{"load", "config"}, res.Stubbed)
	assert.Equal(t, []RemovedBinding{{Name: "db", Kind: KindImport, Line: 2}}, res.Removed)
}

func TestStubExports_Forms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "arrow value",
			src:  "export const handler = async (req) => { return req; };\n",
			want: "export const handler = () => null;\n",
		},
		{
			name: "uninitialised let",
			src:  "export let counter;\n",
			want: "export let counter = null;\n",
		},
		{
			name: "already null",
			src:  "export const value = null;\n",
			want: "export const value = null;\n",
		},
		{
			name: "default arrow",
			src:  "export default () => { return 1; };\n",
			want: "export default () => { return null; };\n",
		},
		{
			name: "default arrow expression body",
			src:  "export default () => compute();\nfunction compute() { return 1; }\n",
			want: "export default () => null;\n",
		},
		{
			name: "classes untouched",
			src:  "export class Store { get() { return 1; } }\n",
			want: "export class Store { get() { return 1; } }\n",
		},
		{
			name: "bulk exports",
			src:  "function a() { return b(); }\nfunction b() { return 1; }\nexport { a };\n",
			want: "function a() { return null; }\nexport { a };\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := transformString(t, "mod.js", tt.src, stubOptions())
			assert.Equal(t, tt.want, string(res.Output))
		})
	}
}
