package statblock

import (
	"errors"
	"testing"
)

func TestParseMapping_Accepts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]float64
	}{
		{"single quotes", `{'cpu_sec': 1.5}`, map[string]float64{"cpu_sec": 1.5}},
		{"double quotes", `{"cpu_sec": 1.5}`, map[string]float64{"cpu_sec": 1.5}},
		{"integer value", `{'n': 42}`, map[string]float64{"n": 42}},
		{"negative value", `{'delta': -3.25}`, map[string]float64{"delta": -3.25}},
		{"explicit plus", `{'d': +2}`, map[string]float64{"d": 2}},
		{"exponent", `{'big': 1.5e3}`, map[string]float64{"big": 1500}},
		{"negative exponent", `{'small': 25E-2}`, map[string]float64{"small": 0.25}},
		{"no leading digit", `{'f': .5}`, map[string]float64{"f": 0.5}},
		{"trailing comma", `{'a': 1, 'b': 2,}`, map[string]float64{"a": 1, "b": 2}},
		{"mixed quoting", `{'a': 1, "b": 2}`, map[string]float64{"a": 1, "b": 2}},
		{"empty mapping", `{}`, map[string]float64{}},
		{"surrounding whitespace", "  \n {'a': 1} \n ", map[string]float64{"a": 1}},
		{"newlines between pairs", "{'a': 1,\n 'b': 2}", map[string]float64{"a": 1, "b": 2}},
		{"escaped quote in key", `{'it\'s': 1}`, map[string]float64{"it's": 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseMapping(tc.in)
			if err != nil {
				t.Fatalf("parseMapping(%q) error = %v", tc.in, err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("parseMapping(%q) = %v, want %v", tc.in, got, tc.want)
			}
			for k, v := range tc.want {
				if got[k] != v {
					t.Errorf("parseMapping(%q)[%q] = %v, want %v", tc.in, k, got[k], v)
				}
			}
		})
	}
}

func TestParseMapping_Rejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not a mapping", `[1, 2, 3]`},
		{"bare word", `hello`},
		{"string value", `{'a': 'b'}`},
		{"nested mapping", `{'a': {'b': 1}}`},
		{"unquoted key", `{a: 1}`},
		{"missing colon", `{'a' 1}`},
		{"missing value", `{'a': }`},
		{"unterminated key", `{'a: 1}`},
		{"unterminated mapping", `{'a': 1`},
		{"trailing garbage", `{'a': 1} extra`},
		{"two mappings", `{'a': 1}{'b': 2}`},
		{"arithmetic expression", `{'a': 1+1}`},
		{"call expression", `{'a': __import__('os').getpid()}`},
		{"lone exponent", `{'a': 1e}`},
		{"lone sign", `{'a': -}`},
		{"lone dot", `{'a': .}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseMapping(tc.in)
			if !errors.Is(err, ErrMalformedData) {
				t.Errorf("parseMapping(%q) error = %v, want ErrMalformedData", tc.in, err)
			}
		})
	}
}
