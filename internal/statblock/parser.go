package statblock

import (
	"fmt"
	"strconv"
)

// parseMapping parses a restricted mapping literal: single- or
// double-quoted string keys mapped to numeric literals, with an optional
// trailing comma. This is the full grammar — the collector scripts
// historically fed the block to a general expression evaluator, which
// accepted far more than data; here anything beyond a flat
// {string: number} mapping is rejected with ErrMalformedData.
func parseMapping(src string) (map[string]float64, error) {
	s := &scanner{src: src}
	s.skipSpace()
	if !s.consume('{') {
		return nil, s.errf("expected '{'")
	}
	out := make(map[string]float64)

	s.skipSpace()
	if s.consume('}') {
		if err := s.expectEOF(); err != nil {
			return nil, err
		}
		return out, nil
	}
	for {
		key, err := s.quotedString()
		if err != nil {
			return nil, err
		}
		s.skipSpace()
		if !s.consume(':') {
			return nil, s.errf("expected ':' after key %q", key)
		}
		s.skipSpace()
		val, err := s.number()
		if err != nil {
			return nil, err
		}
		out[key] = val

		s.skipSpace()
		if s.consume(',') {
			s.skipSpace()
			if s.consume('}') { // trailing comma
				break
			}
			continue
		}
		if s.consume('}') {
			break
		}
		return nil, s.errf("expected ',' or '}'")
	}
	if err := s.expectEOF(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) errf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("statblock: %s at offset %d: %w", msg, s.pos, ErrMalformedData)
}

// peek returns the current byte, or 0 at end of input.
func (s *scanner) peek() byte {
	if s.pos >= len(s.src) {
		return 0
	}
	return s.src[s.pos]
}

// consume advances past c if it is the current byte.
func (s *scanner) consume(c byte) bool {
	if s.peek() == c {
		s.pos++
		return true
	}
	return false
}

func (s *scanner) skipSpace() {
	for {
		switch s.peek() {
		case ' ', '\t', '\r', '\n':
			s.pos++
		default:
			return
		}
	}
}

// expectEOF fails if anything but whitespace follows the mapping.
func (s *scanner) expectEOF() error {
	s.skipSpace()
	if s.pos != len(s.src) {
		return s.errf("trailing data after mapping")
	}
	return nil
}

// quotedString scans a single- or double-quoted key. A backslash escapes
// the following byte, which covers the quote and backslash escapes the
// collector can produce.
func (s *scanner) quotedString() (string, error) {
	quote := s.peek()
	if quote != '\'' && quote != '"' {
		return "", s.errf("expected quoted key")
	}
	s.pos++
	var out []byte
	for {
		c := s.peek()
		switch c {
		case 0:
			return "", s.errf("unterminated key")
		case quote:
			s.pos++
			return string(out), nil
		case '\\':
			s.pos++
			esc := s.peek()
			if esc == 0 {
				return "", s.errf("unterminated key")
			}
			out = append(out, esc)
			s.pos++
		default:
			out = append(out, c)
			s.pos++
		}
	}
}

// number scans a decimal literal with optional sign, fraction, and
// exponent, and parses it as a float64.
func (s *scanner) number() (float64, error) {
	start := s.pos
	if c := s.peek(); c == '+' || c == '-' {
		s.pos++
	}
	digits := 0
	for isDigit(s.peek()) {
		s.pos++
		digits++
	}
	if s.consume('.') {
		for isDigit(s.peek()) {
			s.pos++
			digits++
		}
	}
	if digits == 0 {
		return 0, s.errf("expected number")
	}
	if c := s.peek(); c == 'e' || c == 'E' {
		s.pos++
		if c := s.peek(); c == '+' || c == '-' {
			s.pos++
		}
		if !isDigit(s.peek()) {
			return 0, s.errf("malformed exponent")
		}
		for isDigit(s.peek()) {
			s.pos++
		}
	}
	v, err := strconv.ParseFloat(s.src[start:s.pos], 64)
	if err != nil {
		return 0, s.errf("invalid number %q", s.src[start:s.pos])
	}
	return v, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
