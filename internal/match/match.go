// Package match implements the comparison algorithm that decides whether a
// program's actual stdout satisfies a test case's expected output
// (spec.md §4.1), including tolerance-based floating-point comparison.
package match

import (
	"strconv"
	"strings"

	"github.com/jpequegn/cpjudge/internal/judging"
)

// Normalize applies the output normalisation rule common to every match
// mode: a single trailing newline is tolerated by treating text that
// lacks one as though it had one. No other whitespace is touched.
func Normalize(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// Accepts reports whether actual stdout satisfies the expected output.
func Accepts(expected judging.ExpectedOutput, actual string) bool {
	switch expected.Kind {
	case judging.AcceptAny:
		return true
	case judging.Exact:
		return Normalize(actual) == Normalize(expected.Text)
	case judging.Lines:
		return linesEqual(Normalize(actual), Normalize(expected.Text))
	case judging.Float:
		return floatTokensEqual(expected, Normalize(actual), Normalize(expected.Text))
	default:
		return false
	}
}

// linesEqual implements spec.md §4.1's Lines matching: split both sides
// on '\n', strip a trailing empty final line from each, compare the
// resulting slices element-wise.
func linesEqual(a, b string) bool {
	al := splitStripTrailingEmpty(a)
	bl := splitStripTrailingEmpty(b)
	if len(al) != len(bl) {
		return false
	}
	for i := range al {
		if al[i] != bl[i] {
			return false
		}
	}
	return true
}

func splitStripTrailingEmpty(s string) []string {
	parts := strings.Split(s, "\n")
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// floatTokensEqual implements spec.md §4.1's Float matching: split both
// sides by runs of ASCII whitespace, require equal token counts, and for
// each pair that both parse as finite doubles apply the tolerance
// predicate; otherwise fall back to string equality.
func floatTokensEqual(expected judging.ExpectedOutput, actual, expectedText string) bool {
	actualTokens := fieldsASCIIWhitespace(actual)
	expectedTokens := fieldsASCIIWhitespace(expectedText)
	if len(actualTokens) != len(expectedTokens) {
		return false
	}
	for i := range actualTokens {
		a, b := actualTokens[i], expectedTokens[i]
		av, aok := parseFiniteFloat(a)
		bv, bok := parseFiniteFloat(b)
		if aok && bok {
			if !WithinTolerance(av, bv, expected.AbsoluteError, expected.RelativeError) {
				return false
			}
			continue
		}
		if a != b {
			return false
		}
	}
	return true
}

// fieldsASCIIWhitespace splits on runs of ASCII whitespace, matching the
// spec's "runs of ASCII whitespace" tokenisation rule (as opposed to
// strings.Fields, which also splits on arbitrary Unicode whitespace).
func fieldsASCIIWhitespace(s string) []string {
	var tokens []string
	start := -1
	for i := 0; i < len(s); i++ {
		if isASCIIWhitespace(s[i]) {
			if start >= 0 {
				tokens = append(tokens, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

func isASCIIWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

// parseFiniteFloat parses a token as a finite double-precision float.
// NaN and +/-Inf are rejected so they never match a finite reference, per
// spec.md §4.1 ("NaN never matches") and §9 ("Treat NaN/Inf tokens as
// never matching a finite reference").
func parseFiniteFloat(tok string) (float64, bool) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	if v != v { // NaN
		return 0, false
	}
	if v > maxFinite || v < -maxFinite {
		return 0, false
	}
	return v, true
}

const maxFinite = 1.7976931348623157e+308 // math.MaxFloat64, inlined to avoid an import

// WithinTolerance implements the Float tolerance predicate: a pair
// matches iff |a-b| <= absoluteError OR |a-b| <= relativeError*|b|,
// whichever tolerances are configured.
func WithinTolerance(a, b, absoluteError, relativeError float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	// diff <= absoluteError, not diff <= absoluteError && absoluteError > 0:
	// an unset (zero) tolerance still correctly matches an exact pair
	// (diff == 0), which keeps the predicate reflexive at epsilon == 0 and
	// monotone in tolerance (spec.md §8) without a special case.
	if absoluteError >= 0 && diff <= absoluteError {
		return true
	}
	if relativeError >= 0 {
		bAbs := b
		if bAbs < 0 {
			bAbs = -bAbs
		}
		if diff <= relativeError*bAbs {
			return true
		}
	}
	return false
}

// ValidTolerance reports whether an ExpectedOutput of Kind Float carries a
// usable tolerance configuration: at least one of AbsoluteError/
// RelativeError present, positive and finite (spec.md §4.1).
func ValidTolerance(e judging.ExpectedOutput) bool {
	if e.Kind != judging.Float {
		return true
	}
	hasAbs := e.AbsoluteError > 0 && e.AbsoluteError <= maxFinite
	hasRel := e.RelativeError > 0 && e.RelativeError <= maxFinite
	return hasAbs || hasRel
}
