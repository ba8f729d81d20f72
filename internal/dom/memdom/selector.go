package memdom

import "strings"

// compound is one whitespace-free selector step: tag, #id, .classes.
type compound struct {
	tag     string
	id      string
	classes []string
}

// selector is a descendant chain such as ".thought-controls .prev".
type selector []compound

func parseSelectorList(s string) []selector {
	var out []selector
	for _, part := range strings.Split(s, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		sel := make(selector, 0, len(fields))
		for _, f := range fields {
			sel = append(sel, parseCompound(f))
		}
		out = append(out, sel)
	}
	return out
}

func parseCompound(s string) compound {
	var c compound
	i := 0
	for i < len(s) {
		switch s[i] {
		case '#', '.':
			j := i + 1
			for j < len(s) && s[j] != '#' && s[j] != '.' {
				j++
			}
			if s[i] == '#' {
				c.id = s[i+1 : j]
			} else {
				c.classes = append(c.classes, s[i+1:j])
			}
			i = j
		default:
			j := i
			for j < len(s) && s[j] != '#' && s[j] != '.' {
				j++
			}
			c.tag = strings.ToLower(s[i:j])
			i = j
		}
	}
	return c
}

func (c compound) matches(e *Element) bool {
	if c.tag != "" && c.tag != "*" && c.tag != e.Tag {
		return false
	}
	if c.id != "" && c.id != e.ID {
		return false
	}
	for _, cls := range c.classes {
		if !e.HasClass(cls) {
			return false
		}
	}
	return true
}

// matches reports whether e satisfies the chain. Like querySelector on an
// element, ancestors outside the search root may satisfy leading steps.
func (s selector) matches(e *Element) bool {
	last := len(s) - 1
	if last < 0 || !s[last].matches(e) {
		return false
	}
	step := last - 1
	for anc := e.parent; step >= 0 && anc != nil; anc = anc.parent {
		if s[step].matches(anc) {
			step--
		}
	}
	return step < 0
}
