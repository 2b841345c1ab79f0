//go:build cgo

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTreeSitterCounter(t *testing.T) {
	c := NewTreeSitterCounter()
	assert.Equal(t, "tree-sitter", c.Name())

	tests := []struct {
		name string
		lang Language
		src  string
		want SymbolCounts
	}{
		{
			name: "go",
			lang: LangGo,
			src: "package x\n\nfunc A() {}\n\nfunc (s *S) M() {}\n\n" +
				"type S struct{ inner struct{} }\n\ntype I interface{ M() }\n\ntype N int\n",
			want: SymbolCounts{Functions: 2, Classes: 2},
		},
		{
			name: "python",
			lang: LangPython,
			src:  "def a():\n    pass\n\nclass C:\n    def m(self):\n        pass\n",
			want: SymbolCounts{Functions: 2, Classes: 1},
		},
		{
			name: "typescript",
			lang: LangTypeScript,
			src: "export function a(): void {}\nconst b = (x: number) => x;\n" +
				"interface P { x: number }\nclass D { m(): void {} }\n",
			want: SymbolCounts{Functions: 3, Classes: 2},
		},
		{
			name: "rust",
			lang: LangRust,
			src:  "pub fn a() {}\nstruct S;\nenum E { A }\ntrait T { fn t(&self); }\nimpl S { fn m(&self) {} }\n",
			want: SymbolCounts{Functions: 2, Classes: 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Count(tt.lang, []byte(tt.src)))
		})
	}
}

func TestTreeSitterCounter_DelegatesOtherLanguages(t *testing.T) {
	c := NewTreeSitterCounter()
	src := []byte("class A\n  def x\n  end\nend\n")
	assert.Equal(t, RegexCounter{}.Count(LangRuby, src), c.Count(LangRuby, src))
}
