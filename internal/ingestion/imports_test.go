package ingestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractImports(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"Default", `import React from 'react';`, []string{"react"}},
		{"Named", `import { a, b as c } from "./a";`, []string{"./a"}},
		{"DefaultAndNamed", `import X, { y } from './x'`, []string{"./x"}},
		{"Namespace", `import * as ns from './ns';`, []string{"./ns"}},
		{"SideEffect", `import './styles.css';`, []string{"./styles.css"}},
		{"TypeOnly", `import type { Props } from './types';`, []string{"./types"}},
		{"Multiline", "import {\n  a,\n  b,\n} from './multi';", []string{"./multi"}},
		{"ImportEquals", `import fs = require('./fs');`, []string{"./fs"}},
		{"Require", `const a = require('./a');`, []string{"./a"}},
		{"Dynamic", `const m = await import('./lazy');`, []string{"./lazy"}},
		{"ReExportNamed", `export { a } from './a';`, []string{"./a"}},
		{"ReExportStar", `export * from './all';`, []string{"./all"}},
		{"ReExportStarAs", `export * as all from './all';`, []string{"./all"}},
		{"ReExportType", `export type { T } from './t';`, []string{"./t"}},
		{"LocalExport", `export const a = 1; export { a };`, nil},
		{"ExportDefault", `export default function App() {}`, nil},
		{"LineComment", "// import x from './no'\nimport y from './yes';", []string{"./yes"}},
		{"BlockComment", "/* require('./no') */ require('./yes')", []string{"./yes"}},
		{"String", `const s = "import x from './no'";`, nil},
		{"Template", "const s = `require('./no')`; import './yes';", []string{"./yes"}},
		{"RegexWithBacktick", "const re = /`/; require('./a');", []string{"./a"}},
		{"RegexWithQuote", "if (/'/.test(s)) { import('./b'); }", []string{"./b"}},
		{"RegexClass", "const re = /[/']/g; require('./c');", []string{"./c"}},
		{"RegexBody", "const re = /require('.\\/no')/;", nil},
		{"RegexAfterReturn", "function f() { return /`/; }\nrequire('./d');", []string{"./d"}},
		{"Division", "const x = a / b / `c`; require('./e');", []string{"./e"}},
		{"JSXClosingTag", "const el = <p>hi</p>; require('./f');", []string{"./f"}},
		{"MemberRequire", `obj.require('./no');`, nil},
		{"NonLiteralRequire", `require(name);`, nil},
		{"ImportMeta", `const u = import.meta.url;`, nil},
		{"Ordered", "import a from './a';\nconst b = require('./b');\nexport * from './c';",
			[]string{"./a", "./b", "./c"}},
		{"DuplicatesKept", "import a from './a';\nimport { b } from './a';", []string{"./a", "./a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ExtractImports([]byte(tt.src)))
		})
	}
}

func TestExtractImports_Malformed(t *testing.T) {
	t.Parallel()

	// Must terminate and never panic on truncated input.
	for _, src := range []string{
		"import",
		"import {",
		"import { a } from",
		"export * as",
		"require(",
		"require('unterminated",
		"'",
		"`",
		"/*",
		"x = /unterminated",
		"x = /[",
		"x = /\\",
	} {
		assert.NotPanics(t, func() { ExtractImports([]byte(src)) }, src)
	}
}
