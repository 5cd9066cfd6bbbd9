// Package resolver implements pure tag-URI inference: given a plain
// scalar's text, decide which Core schema tag it would carry if no
// explicit tag were given.
//
// This Resolver never infers tag:yaml.org,2002:timestamp (the Value
// model has no Timestamp variant), and int/float recognition uses
// Go's own strconv parsing rather than a hand-rolled literal table.
package resolver

import (
	"math"
	"strconv"
	"strings"

	"github.com/willabides/corevalyaml/token"
)

// Schema selects which implicit-resolution table Resolve consults.
type Schema int

const (
	// Core is the YAML 1.2 Core schema: null/bool/int/float literals,
	// everything else resolves to str.
	Core Schema = iota
	// JSON restricts implicit resolution to the JSON schema's stricter
	// literal forms: only "null" is null, only lowercase "true"/"false"
	// are bools, and there are no .inf/.nan floats and no 0x/0o/0b int
	// prefixes.
	JSON
)

var coreNull = map[string]bool{
	"": true, "~": true, "null": true, "Null": true, "NULL": true,
}

var coreBoolTrue = map[string]bool{
	"true": true, "True": true, "TRUE": true,
}

var coreBoolFalse = map[string]bool{
	"false": true, "False": true, "FALSE": true,
}

var jsonNull = map[string]bool{"null": true}
var jsonBoolTrue = map[string]bool{"true": true}
var jsonBoolFalse = map[string]bool{"false": true}

// Resolve returns the tag URI that a plain (unquoted, untagged) scalar
// with the given text would carry under schema.
func Resolve(schema Schema, text string) string {
	nullTab, trueTab, falseTab := coreNull, coreBoolTrue, coreBoolFalse
	if schema == JSON {
		nullTab, trueTab, falseTab = jsonNull, jsonBoolTrue, jsonBoolFalse
	}

	if nullTab[text] {
		return token.NullTag
	}
	if trueTab[text] || falseTab[text] {
		return token.BoolTag
	}
	if isInt(schema, text) {
		return token.IntTag
	}
	if isFloat(schema, text) {
		return token.FloatTag
	}
	return token.StrTag
}

// BoolValue reports the bool value of a scalar previously resolved (or
// explicitly tagged) as tag:yaml.org,2002:bool. ok is false if text
// does not match any recognized boolean literal under schema.
func BoolValue(schema Schema, text string) (value, ok bool) {
	trueTab, falseTab := coreBoolTrue, coreBoolFalse
	if schema == JSON {
		trueTab, falseTab = jsonBoolTrue, jsonBoolFalse
	}
	if trueTab[text] {
		return true, true
	}
	if falseTab[text] {
		return false, true
	}
	return false, false
}

func isInt(schema Schema, s string) bool {
	if s == "" {
		return false
	}
	body := s
	if body[0] == '+' || body[0] == '-' {
		body = body[1:]
	}
	if body == "" {
		return false
	}
	if schema == Core {
		switch {
		case strings.HasPrefix(body, "0x"):
			return allHex(body[2:]) && body[2:] != ""
		case strings.HasPrefix(body, "0o"):
			return allOctal(body[2:]) && body[2:] != ""
		case strings.HasPrefix(body, "0b"):
			return allBinary(body[2:]) && body[2:] != ""
		}
	}
	clean := strings.ReplaceAll(body, "_", "")
	if clean == "" {
		return false
	}
	_, err := strconv.ParseInt(s2(s), 10, 64)
	if err == nil {
		return true
	}
	// Fall back to arbitrary-precision digit check for ints too large
	// for int64; the Value model stores overflowing ints as Float, but
	// the tag is still int.
	for _, c := range clean {
		if c < '0' || c > '9' {
			return false
		}
	}
	return clean != ""
}

func s2(s string) string {
	return strings.ReplaceAll(s, "_", "")
}

func allHex(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) && s[i] != '_' {
			return false
		}
	}
	return true
}

func allOctal(s string) bool {
	for i := 0; i < len(s); i++ {
		if (s[i] < '0' || s[i] > '7') && s[i] != '_' {
			return false
		}
	}
	return true
}

func allBinary(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '0' && s[i] != '1' && s[i] != '_' {
			return false
		}
	}
	return true
}

func isHexDigit(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'f' || b >= 'A' && b <= 'F'
}

func isFloat(schema Schema, s string) bool {
	if s == "" {
		return false
	}
	switch s {
	case ".inf", ".Inf", ".INF", "+.inf", "+.Inf", "+.INF", "-.inf", "-.Inf", "-.INF":
		return schema == Core
	case ".nan", ".NaN", ".NAN":
		return schema == Core
	}
	clean := strings.ReplaceAll(s, "_", "")
	if clean == "" {
		return false
	}
	if !strings.ContainsAny(clean, ".eE") {
		return false
	}
	_, err := strconv.ParseFloat(clean, 64)
	return err == nil
}

// ParseInt parses a scalar already known (via Resolve) to carry
// tag:yaml.org,2002:int, returning the Go int64 value. It supports the
// 0x/0o/0b prefixes and '_' digit separators the Core schema allows.
func ParseInt(s string) (int64, bool) {
	neg := false
	body := s
	if len(body) > 0 && (body[0] == '+' || body[0] == '-') {
		neg = body[0] == '-'
		body = body[1:]
	}
	body = strings.ReplaceAll(body, "_", "")
	var v int64
	var err error
	switch {
	case strings.HasPrefix(body, "0x"):
		v, err = strconv.ParseInt(body[2:], 16, 64)
	case strings.HasPrefix(body, "0o"):
		v, err = strconv.ParseInt(body[2:], 8, 64)
	case strings.HasPrefix(body, "0b"):
		v, err = strconv.ParseInt(body[2:], 2, 64)
	default:
		v, err = strconv.ParseInt(body, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}

// ParseFloat parses a scalar already known (via Resolve) to carry
// tag:yaml.org,2002:float.
func ParseFloat(s string) (float64, bool) {
	switch s {
	case ".inf", ".Inf", ".INF", "+.inf", "+.Inf", "+.INF":
		return math.Inf(1), true
	case "-.inf", "-.Inf", "-.INF":
		return math.Inf(-1), true
	case ".nan", ".NaN", ".NAN":
		return math.NaN(), true
	}
	clean := strings.ReplaceAll(s, "_", "")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
