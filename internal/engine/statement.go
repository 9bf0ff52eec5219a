package engine

import "strings"

// Token classes and states of SQLite's statement-completeness automaton
// (sqlite3_complete). It only finds statement boundaries; the text itself
// is handed to SQLite unchanged.
type tokenKind int

const (
	tokSemi tokenKind = iota
	tokSpace
	tokOther
	tokExplain
	tokCreate
	tokTemp
	tokTrigger
	tokEnd
)

type scanState int

const (
	stateInvalid scanState = iota
	stateStart
	stateNormal
	stateExplain
	stateCreate
	stateTrigger
	stateSemi
	stateEnd
)

// transitions[state][token]. A semicolon inside CREATE TRIGGER ... END
// does not end the statement.
var transitions = [8][8]scanState{
	//                SEMI         SPACE         OTHER         EXPLAIN       CREATE        TEMP          TRIGGER       END
	stateInvalid: {stateStart, stateInvalid, stateNormal, stateExplain, stateCreate, stateNormal, stateNormal, stateNormal},
	stateStart:   {stateStart, stateStart, stateNormal, stateExplain, stateCreate, stateNormal, stateNormal, stateNormal},
	stateNormal:  {stateStart, stateNormal, stateNormal, stateNormal, stateNormal, stateNormal, stateNormal, stateNormal},
	stateExplain: {stateStart, stateExplain, stateExplain, stateNormal, stateCreate, stateNormal, stateNormal, stateNormal},
	stateCreate:  {stateStart, stateCreate, stateNormal, stateNormal, stateNormal, stateCreate, stateTrigger, stateNormal},
	stateTrigger: {stateSemi, stateTrigger, stateTrigger, stateTrigger, stateTrigger, stateTrigger, stateTrigger, stateTrigger},
	stateSemi:    {stateSemi, stateSemi, stateTrigger, stateTrigger, stateTrigger, stateTrigger, stateTrigger, stateEnd},
	stateEnd:     {stateStart, stateEnd, stateTrigger, stateTrigger, stateTrigger, stateTrigger, stateTrigger, stateTrigger},
}

var keywords = map[string]tokenKind{
	"explain":   tokExplain,
	"create":    tokCreate,
	"temp":      tokTemp,
	"temporary": tokTemp,
	"trigger":   tokTrigger,
	"end":       tokEnd,
}

// splitFirst returns the first non-empty statement of sql, including its
// terminating semicolon, and reports whether another statement follows.
// first is empty when sql holds only whitespace, comments and semicolons.
// Text with an unterminated literal is returned whole so SQLite can
// report it.
func splitFirst(sql string) (first string, more bool) {
	state := stateStart
	begin := -1
	for i := 0; i < len(sql); {
		kind, end, ok := scanToken(sql, i)
		if !ok {
			if begin < 0 {
				begin = i
			}
			return sql[begin:], false
		}
		if begin < 0 && kind != tokSpace && kind != tokSemi {
			begin = i
		}
		state = transitions[state][kind]
		i = end

		if kind == tokSemi && state == stateStart && begin >= 0 {
			return sql[begin:end], hasStatement(sql[end:])
		}
	}
	if begin < 0 {
		return "", false
	}
	return sql[begin:], false
}

// hasStatement reports whether sql contains anything besides whitespace,
// comments and semicolons.
func hasStatement(sql string) bool {
	for i := 0; i < len(sql); {
		kind, end, ok := scanToken(sql, i)
		if !ok || (kind != tokSpace && kind != tokSemi) {
			return true
		}
		i = end
	}
	return false
}

// scanToken classifies the token starting at sql[i] and returns the
// offset just past it. ok is false for an unterminated quoted literal.
func scanToken(sql string, i int) (kind tokenKind, end int, ok bool) {
	c := sql[i]
	switch {
	case c == ';':
		return tokSemi, i + 1, true

	case c == ' ' || c == '\t' || c == '\n' || c == '\f' || c == '\r':
		return tokSpace, i + 1, true

	case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
		if n := strings.IndexByte(sql[i:], '\n'); n >= 0 {
			return tokSpace, i + n + 1, true
		}
		return tokSpace, len(sql), true

	case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
		// SQLite accepts a block comment left open at the end of input.
		if n := strings.Index(sql[i+2:], "*/"); n >= 0 {
			return tokSpace, i + 2 + n + 2, true
		}
		return tokSpace, len(sql), true

	case c == '\'' || c == '"' || c == '`' || c == '[':
		closer := c
		if c == '[' {
			closer = ']'
		}
		n := strings.IndexByte(sql[i+1:], closer)
		if n < 0 {
			return tokOther, len(sql), false
		}
		return tokOther, i + 1 + n + 1, true

	case isIdentChar(c):
		end = i
		for end < len(sql) && isIdentChar(sql[end]) {
			end++
		}
		if k, found := keywords[strings.ToLower(sql[i:end])]; found {
			return k, end, true
		}
		return tokOther, end, true

	default:
		return tokOther, i + 1, true
	}
}

func isIdentChar(c byte) bool {
	return c >= 0x80 || c == '_' || c == '$' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
