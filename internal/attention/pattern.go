package attention

import "strings"

// frame is the part of a stack entry that patterns can see.
type frame struct {
	kind  string
	field string
}

// step tests one stack frame. An empty kinds list accepts any kind; an
// empty field accepts any field.
type step struct {
	kinds    []string
	field    string
	optional bool
}

func (s step) accepts(f frame) bool {
	if s.field != "" && s.field != f.field {
		return false
	}
	if len(s.kinds) == 0 {
		return true
	}
	for _, k := range s.kinds {
		if k == f.kind {
			return true
		}
	}
	return false
}

// pattern is a sequence of steps matched against the END of the ancestor
// stack: the last step is the current node, the one before it its parent.
type pattern []step

// kind builds a step accepting any of kinds.
func kind(kinds ...string) step {
	return step{kinds: kinds}
}

// field builds a step accepting kinds held under the named field.
func field(name string, kinds ...string) step {
	return step{kinds: kinds, field: name}
}

// opt makes a step skippable.
func opt(s step) step {
	s.optional = true
	return s
}

// seq concatenates step lists into one pattern.
func seq(parts ...[]step) pattern {
	var p pattern
	for _, part := range parts {
		p = append(p, part...)
	}
	return p
}

// matches reports whether p matches the end of stack.
func (p pattern) matches(stack []frame) bool {
	return suffixMatch(p, len(p)-1, stack, len(stack)-1)
}

// suffixMatch matches p[:pi+1] against stack[:si+1], right to left.
// Optional steps either consume a frame or are skipped.
func suffixMatch(p pattern, pi int, stack []frame, si int) bool {
	if pi < 0 {
		return true
	}
	st := p[pi]
	if si >= 0 && st.accepts(stack[si]) && suffixMatch(p, pi-1, stack, si-1) {
		return true
	}
	if st.optional {
		return suffixMatch(p, pi-1, stack, si)
	}
	return false
}

// String renders a pattern for debug output.
func (p pattern) String() string {
	parts := make([]string, len(p))
	for i, st := range p {
		s := "*"
		if len(st.kinds) > 0 {
			s = strings.Join(st.kinds, "|")
		}
		if st.field != "" {
			s = st.field + "=" + s
		}
		if st.optional {
			s += "?"
		}
		parts[i] = s
	}
	return strings.Join(parts, " > ")
}

// pathString projects a stack onto its kinds.
func pathString(stack []frame) string {
	kinds := make([]string, len(stack))
	for i, f := range stack {
		kinds[i] = f.kind
	}
	return strings.Join(kinds, " > ")
}
