package ingestion

// ExtractImports returns the module specifiers a TS/JS source imports, in
// source order and with duplicates kept.
//
// It recognizes static imports (including side-effect and type-only forms),
// re-exports with a from clause, `import x = require(...)`, `require(...)`
// and dynamic `import(...)` with a string-literal argument. Comments, string
// literals, template literals and regex literals are skipped so that
// import-like text inside them is ignored. This is a lexer, not a parser:
// anything it cannot follow is passed over.
func ExtractImports(src []byte) []string {
	s := &importScanner{src: src}
	s.run()
	return s.specs
}

type importScanner struct {
	src   []byte
	specs []string
}

func (s *importScanner) run() {
	code := s.src
	n := len(code)
	prevDot := false
	// A '/' starts a regex literal unless it follows an operand.
	regexOK := true

	for i := 0; i < n; {
		c := code[i]
		switch {
		case c == '/' && i+1 < n && code[i+1] == '/':
			i = skipLineComment(code, i)
		case c == '/' && i+1 < n && code[i+1] == '*':
			i = skipBlockComment(code, i)
		case c == '/' && regexOK:
			i = skipRegex(code, i)
			prevDot = false
			regexOK = false
		case c == '\'' || c == '"':
			i = skipToStringEnd(code, i, c) + 1
			prevDot = false
			regexOK = false
		case c == '`':
			i = skipTemplate(code, i)
			prevDot = false
			regexOK = false
		case isIdentStart(c):
			word, next := readWord(code, i)
			regexOK = !prevDot && regexKeywords[word]
			if !prevDot {
				switch word {
				case "import":
					next = s.importClause(next)
				case "export":
					next = s.exportClause(next)
				case "require":
					next = s.requireCall(next)
				}
			}
			i = next
			prevDot = false
		case c >= '0' && c <= '9':
			for i < n && (isIdentChar(code[i]) || code[i] == '.') {
				i++
			}
			prevDot = false
			regexOK = false
		default:
			if !isWhiteSpace(c) {
				prevDot = c == '.'
				// '<' covers JSX closing tags.
				regexOK = c != ')' && c != ']' && c != '<'
			}
			i++
		}
	}
}

// regexKeywords are the words after which a '/' opens a regex literal.
var regexKeywords = map[string]bool{
	"return": true, "typeof": true, "instanceof": true, "in": true, "of": true,
	"new": true, "delete": true, "void": true, "throw": true, "case": true,
	"do": true, "else": true, "yield": true, "await": true,
}

// importClause handles everything after the import keyword.
func (s *importScanner) importClause(i int) int {
	code := s.src
	i = skipSpacesAndComments(code, i)
	if i >= len(code) {
		return i
	}

	switch code[i] {
	case '(':
		return s.callArgument(i)
	case '.':
		// import.meta
		return i
	case '\'', '"':
		return s.addString(i)
	}

	for i < len(code) {
		i = skipSpacesAndComments(code, i)
		if i >= len(code) {
			return i
		}
		c := code[i]
		switch {
		case c == '{':
			i = skipBraces(code, i)
		case c == '*' || c == ',':
			i++
		case c == '=':
			i = skipSpacesAndComments(code, i+1)
			if word, next := readWord(code, i); word == "require" {
				return s.requireCall(next)
			}
			return i
		case isIdentStart(c):
			word, next := readWord(code, i)
			if word == "from" {
				j := skipSpacesAndComments(code, next)
				if j < len(code) && (code[j] == '\'' || code[j] == '"') {
					return s.addString(j)
				}
				// "from" used as a binding name, as in `import from from 'x'`.
			}
			i = next
		default:
			return i
		}
	}
	return i
}

// exportClause handles `export {…} from`, `export * from` and `export * as ns from`.
func (s *importScanner) exportClause(i int) int {
	code := s.src
	i = skipSpacesAndComments(code, i)
	if word, next := readWord(code, i); word == "type" {
		i = skipSpacesAndComments(code, next)
	}
	if i >= len(code) {
		return i
	}

	switch code[i] {
	case '{':
		i = skipBraces(code, i)
	case '*':
		i = skipSpacesAndComments(code, i+1)
		if word, next := readWord(code, i); word == "as" {
			i = skipSpacesAndComments(code, next)
			_, i = readWord(code, i)
		}
	default:
		return i
	}

	i = skipSpacesAndComments(code, i)
	word, next := readWord(code, i)
	if word != "from" {
		return i
	}
	j := skipSpacesAndComments(code, next)
	if j < len(code) && (code[j] == '\'' || code[j] == '"') {
		return s.addString(j)
	}
	return j
}

// requireCall handles `require('x')` once the identifier has been read.
func (s *importScanner) requireCall(i int) int {
	i = skipSpacesAndComments(s.src, i)
	if i < len(s.src) && s.src[i] == '(' {
		return s.callArgument(i)
	}
	return i
}

// callArgument records a lone string-literal argument of a call starting at '('.
func (s *importScanner) callArgument(i int) int {
	code := s.src
	j := skipSpacesAndComments(code, i+1)
	if j >= len(code) || (code[j] != '\'' && code[j] != '"') {
		return i + 1
	}
	spec, end := parseStringLiteral(code, j)
	k := skipSpacesAndComments(code, end)
	if k < len(code) && code[k] == ')' {
		s.specs = append(s.specs, spec)
		return k + 1
	}
	return end
}

func (s *importScanner) addString(i int) int {
	spec, end := parseStringLiteral(s.src, i)
	s.specs = append(s.specs, spec)
	return end
}

func isWhiteSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// readWord reads an identifier at i. It returns "" and i if there is none.
func readWord(code []byte, i int) (string, int) {
	if i >= len(code) || !isIdentStart(code[i]) {
		return "", i
	}
	start := i
	for i < len(code) && isIdentChar(code[i]) {
		i++
	}
	return string(code[start:i]), i
}

// parseStringLiteral returns the raw contents of the literal at i and the
// index just past its closing quote.
func parseStringLiteral(code []byte, i int) (string, int) {
	end := skipToStringEnd(code, i, code[i])
	if end >= len(code) {
		return string(code[i+1:]), len(code)
	}
	return string(code[i+1 : end]), end + 1
}

// skipToStringEnd returns the index of the closing quote of the literal at start.
func skipToStringEnd(code []byte, start int, quote byte) int {
	i := start + 1
	for i < len(code) {
		switch code[i] {
		case quote:
			return i
		case '\\':
			i += 2
		case '\n':
			// Unterminated literal; stop at the line end.
			return i
		default:
			i++
		}
	}
	return len(code)
}

// skipTemplate returns the index just past the template literal at start.
func skipTemplate(code []byte, start int) int {
	i := start + 1
	for i < len(code) {
		switch code[i] {
		case '\\':
			i += 2
		case '`':
			return i + 1
		default:
			i++
		}
	}
	return len(code)
}

// skipRegex returns the index just past the regex literal body at start.
// Flags are left for the caller to read as a word.
func skipRegex(code []byte, start int) int {
	inClass := false
	i := start + 1
	for i < len(code) {
		switch code[i] {
		case '\\':
			i += 2
			continue
		case '\n':
			// Unterminated; stop at the line end.
			return i
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				return i + 1
			}
		}
		i++
	}
	return len(code)
}

func skipLineComment(code []byte, start int) int {
	i := start + 2
	for i < len(code) && code[i] != '\n' {
		i++
	}
	return i
}

func skipBlockComment(code []byte, start int) int {
	i := start + 2
	for i+1 < len(code) && !(code[i] == '*' && code[i+1] == '/') {
		i++
	}
	if i+1 < len(code) {
		return i + 2
	}
	return len(code)
}

func skipSpacesAndComments(code []byte, i int) int {
	n := len(code)
	for i < n {
		for i < n && isWhiteSpace(code[i]) {
			i++
		}
		if i+1 < n && code[i] == '/' && code[i+1] == '/' {
			i = skipLineComment(code, i)
			continue
		}
		if i+1 < n && code[i] == '/' && code[i+1] == '*' {
			i = skipBlockComment(code, i)
			continue
		}
		break
	}
	return i
}

// skipBraces returns the index just past the '}' matching the '{' at i.
func skipBraces(code []byte, i int) int {
	depth := 0
	for i < len(code) {
		switch c := code[i]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		case '\'', '"':
			i = skipToStringEnd(code, i, c)
		case '/':
			if i+1 < len(code) && code[i+1] == '/' {
				i = skipLineComment(code, i) - 1
			} else if i+1 < len(code) && code[i+1] == '*' {
				i = skipBlockComment(code, i) - 1
			}
		}
		i++
	}
	return len(code)
}
