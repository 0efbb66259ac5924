package conversation

import (
	"regexp"
)

var (
	directivePattern = regexp.MustCompile(`--convo=(\w+)$`)
	directiveStrip   = regexp.MustCompile(`\s*--convo=\w+\s*$`)
)

// Router extracts the trailing --convo=<token> directive from input lines
// and tracks which conversation is active. Selection is sticky: once set,
// the active ID is reused until another directive replaces it.
type Router struct {
	active string
	newID  func() string
}

// NewRouter creates a router with no active conversation. newID is called
// when a line arrives without a directive and nothing is active yet.
func NewRouter(newID func() string) *Router {
	return &Router{newID: newID}
}

// Route returns the line with any directive removed and the conversation
// ID it belongs to.
func (r *Router) Route(line string) (cleaned string, id string) {
	cleaned = line
	if m := directivePattern.FindStringSubmatch(line); m != nil {
		r.active = m[1]
		cleaned = directiveStrip.ReplaceAllString(line, "")
	}
	if r.active == "" {
		r.active = r.newID()
	}
	return cleaned, r.active
}

// Active returns the current conversation ID, or "" before the first line.
func (r *Router) Active() string {
	return r.active
}
