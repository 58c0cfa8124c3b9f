package wikitext

import (
	"strconv"
	"strings"
)

type state int

const (
	// outside of any template
	stateIdle state = iota
	stateName
	statePositional
	stateNamed
	// inside [[...]] of the outermost template, | and = are literal
	stateLink
)

type frame int

const (
	frameTemplate frame = iota
	// {{{param}}}
	frameParam
)

type scanner struct {
	text string
	pos  int

	state     state
	resume    state
	linkDepth int
	frames    []frame

	start   int
	slot    int
	key     string
	buf     strings.Builder
	current Template
	records []Template
}

// ParseTemplates returns every outermost template invocation in text, in
// order of appearance. Templates nested inside another one are left as raw
// text in the enclosing argument. An invocation that is never closed is
// dropped.
func ParseTemplates(text string) []Template {
	s := &scanner{text: text}
	s.run()
	return s.records
}

func (s *scanner) run() {
	for s.pos < len(s.text) {
		switch {
		case s.has("{{{"):
			s.push(frameParam, "{{{")
		case s.has("{{"):
			s.push(frameTemplate, "{{")
		case s.has("}}}") && s.top() == frameParam:
			s.pop("}}}")
		case s.has("}}") && len(s.frames) > 0:
			s.pop("}}")
		case s.outermost():
			s.scanOutermost()
		case len(s.frames) > 1:
			s.buf.WriteByte(s.text[s.pos])
			s.pos++
		default:
			s.pos++
		}
	}
}

func (s *scanner) has(token string) bool {
	return strings.HasPrefix(s.text[s.pos:], token)
}

func (s *scanner) top() frame {
	if len(s.frames) == 0 {
		return -1
	}
	return s.frames[len(s.frames)-1]
}

// outermost is true while the only open frame is the template being recorded.
func (s *scanner) outermost() bool {
	return len(s.frames) == 1 && s.frames[0] == frameTemplate
}

func (s *scanner) push(kind frame, token string) {
	if len(s.frames) == 0 && kind == frameTemplate {
		s.begin()
	} else if len(s.frames) > 0 {
		s.buf.WriteString(token)
	}
	s.frames = append(s.frames, kind)
	s.pos += len(token)
}

func (s *scanner) pop(token string) {
	closing := s.outermost()
	s.frames = s.frames[:len(s.frames)-1]
	s.pos += len(token)

	if closing {
		s.finish()
		return
	}
	if len(s.frames) > 0 {
		s.buf.WriteString(token)
	}
}

func (s *scanner) scanOutermost() {
	c := s.text[s.pos]

	if s.has("[[") {
		if s.state != stateLink {
			s.resume = s.state
			s.state = stateLink
		}
		s.linkDepth++
		s.buf.WriteString("[[")
		s.pos += 2
		return
	}
	if s.state == stateLink && s.has("]]") {
		s.linkDepth--
		if s.linkDepth == 0 {
			s.state = s.resume
		}
		s.buf.WriteString("]]")
		s.pos += 2
		return
	}

	switch {
	case c == '|' && s.state != stateLink:
		s.flush()
		s.slot++
		s.state = statePositional
	case c == '=' && s.state == statePositional:
		s.key = strings.TrimSpace(s.buf.String())
		s.buf.Reset()
		s.state = stateNamed
	default:
		s.buf.WriteByte(c)
	}
	s.pos++
}

func (s *scanner) begin() {
	s.current = Template{}
	s.start = s.pos
	s.slot = 0
	s.key = ""
	s.linkDepth = 0
	s.buf.Reset()
	s.state = stateName
}

// flush closes the open slot into the pending record.
func (s *scanner) flush() {
	current := s.state
	if current == stateLink {
		current = s.resume
	}

	value := s.buf.String()
	s.buf.Reset()

	switch current {
	case stateName:
		s.current.Name = strings.TrimSpace(value)
	case statePositional:
		s.current.Args = append(s.current.Args, Argument{
			Key:   strconv.Itoa(s.slot),
			Value: value,
		})
	case stateNamed:
		s.current.Args = append(s.current.Args, Argument{
			Key:   s.key,
			Value: value,
			Named: true,
		})
		s.key = ""
	}
}

func (s *scanner) finish() {
	s.flush()
	s.current.Raw = s.text[s.start:s.pos]
	s.records = append(s.records, s.current)
	s.current = Template{}
	s.linkDepth = 0
	s.state = stateIdle
}
