package extract

// Hand-written tokenizer for ZIL source. The language is a Lisp relative:
// angle forms <RTN ARG ...> are calls and definitions, paren forms group
// argument lists and property clauses, and a semicolon comments out the
// rest of the line.

type zilTokenType int

const (
	zilEOF zilTokenType = iota
	zilLAngle
	zilRAngle
	zilLParen
	zilRParen
	zilAtom
	zilString
	zilNumber
)

type zilToken struct {
	typ  zilTokenType
	text string
	line int
}

type zilLexer struct {
	src  string
	pos  int
	line int
}

func newZILLexer(src string) *zilLexer {
	return &zilLexer{src: src, line: 1}
}

// next returns the next token. The lexer never fails: unterminated strings
// run to end of input and stray bytes are folded into atoms.
func (l *zilLexer) next() zilToken {
	l.skipBlank()
	if l.pos >= len(l.src) {
		return zilToken{typ: zilEOF, line: l.line}
	}

	start := l.pos
	startLine := l.line
	switch c := l.src[l.pos]; c {
	case '<':
		l.pos++
		return zilToken{typ: zilLAngle, text: "<", line: startLine}
	case '>':
		l.pos++
		return zilToken{typ: zilRAngle, text: ">", line: startLine}
	case '(':
		l.pos++
		return zilToken{typ: zilLParen, text: "(", line: startLine}
	case ')':
		l.pos++
		return zilToken{typ: zilRParen, text: ")", line: startLine}
	case '"':
		l.pos++
		for l.pos < len(l.src) {
			switch l.src[l.pos] {
			case '\\':
				l.pos++
				if l.pos < len(l.src) {
					l.pos++
				}
				continue
			case '\n':
				l.line++
			case '"':
				l.pos++
				return zilToken{typ: zilString, text: l.src[start+1 : l.pos-1], line: startLine}
			}
			l.pos++
		}
		return zilToken{typ: zilString, text: l.src[start+1:], line: startLine}
	}

	for l.pos < len(l.src) && !zilDelimiter(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	if zilNumeric(text) {
		return zilToken{typ: zilNumber, text: text, line: startLine}
	}
	return zilToken{typ: zilAtom, text: text, line: startLine}
}

func (l *zilLexer) skipBlank() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r':
			l.pos++
		case '\n':
			l.line++
			l.pos++
		case ';':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func zilDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '<', '>', '(', ')', '"', ';':
		return true
	}
	return false
}

func zilNumeric(s string) bool {
	if s == "" {
		return false
	}
	start := 0
	if s[0] == '-' || s[0] == '+' {
		if len(s) == 1 {
			return false
		}
		start = 1
	}
	for i := start; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
