package query

import "strings"

// Parse builds an ExpandedQuery from whitespace separated tokens.
// "+tok" and "-tok" set MUST / MUST_NOT, "field:value" sets the term field.
// Empty input yields an empty user query.
func Parse(text string) *ExpandedQuery {
	return NewExpandedQuery(ParseBoolean(text, Should, false))
}

// ParseBoolean builds a BooleanQuery from whitespace separated tokens.
// defaultOccur applies to tokens without a +/- marker. Every term and
// position is flagged generated when generated is true.
func ParseBoolean(text string, defaultOccur Occur, generated bool) *BooleanQuery {
	bq := NewBooleanQuery(Should, generated)
	for _, tok := range strings.Fields(text) {
		occur := defaultOccur
		switch {
		case len(tok) > 1 && tok[0] == '+':
			occur, tok = Must, tok[1:]
		case len(tok) > 1 && tok[0] == '-':
			occur, tok = MustNot, tok[1:]
		}
		field, value := SplitField(tok)
		term := &Term{Field: field, Value: value, Generated: generated}
		bq.Clauses = append(bq.Clauses, NewDisjunctionMaxQuery(occur, generated, term))
	}
	return bq
}

// SplitField splits "field:value". A colon at either end is part of the value.
func SplitField(tok string) (field, value string) {
	i := strings.IndexByte(tok, ':')
	if i <= 0 || i == len(tok)-1 {
		return "", tok
	}
	return tok[:i], tok[i+1:]
}
