package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"go.yaml.in/yaml/v3"

	"github.com/jpequegn/cpjudge/internal/judging"
)

// fs is overridable in tests via afero.NewMemMapFs(), the same pattern
// the teacher's loader would have used had it needed filesystem
// isolation — generalised here since the fixture loader now needs it.
var fs afero.Fs = afero.NewOsFs()

// Suite is a loaded test-case fixture: the command under test plus its
// cases.
type Suite struct {
	Name    string
	Spec    judging.CommandSpec
	Cases   []judging.TestCase
	Timeout time.Duration // overall batch timeout; zero means none
}

// LoadSuite loads a test suite from a file (JSON or YAML). Expected
// format:
//
//	program: ./a.out
//	args: ["--flag"]
//	timelimit: 2s
//	cases:
//	  - name: sample1
//	    input: "1 2\n"
//	    expected:
//	      kind: exact
//	      text: "3\n"
func LoadSuite(filePath string) (*Suite, error) {
	data, err := afero.ReadFile(fs, filePath)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}

	var raw map[string]interface{}
	switch {
	case strings.HasSuffix(filePath, ".json"):
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing JSON suite: %w", err)
		}
	case strings.HasSuffix(filePath, ".yaml"), strings.HasSuffix(filePath, ".yml"):
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing YAML suite: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported suite format: %s (must be .json, .yaml or .yml)", filePath)
	}

	return parseSuite(raw)
}

func parseSuite(raw map[string]interface{}) (*Suite, error) {
	suite := &Suite{}

	suite.Spec.Program = cast.ToString(raw["program"])
	if suite.Spec.Program == "" {
		return nil, fmt.Errorf("suite: missing required field 'program'")
	}
	suite.Spec.Args = cast.ToStringSlice(raw["args"])
	suite.Spec.Cwd = cast.ToString(raw["cwd"])
	suite.Name = cast.ToString(raw["name"])

	if envRaw, ok := raw["env"]; ok {
		envMap, err := cast.ToStringMapStringE(envRaw)
		if err != nil {
			return nil, fmt.Errorf("suite: invalid 'env': %w", err)
		}
		suite.Spec.Env = envMap
	}

	var defaultTimelimit *time.Duration
	if tl, ok := raw["timelimit"]; ok {
		d, err := parseDuration(tl)
		if err != nil {
			return nil, fmt.Errorf("suite: invalid 'timelimit': %w", err)
		}
		defaultTimelimit = &d
	}

	if timeout, ok := raw["timeout"]; ok {
		d, err := parseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("suite: invalid 'timeout': %w", err)
		}
		suite.Timeout = d
	}

	rawCases, ok := raw["cases"].([]interface{})
	if !ok || len(rawCases) == 0 {
		return nil, fmt.Errorf("suite: missing or empty 'cases'")
	}

	for i, rc := range rawCases {
		m, ok := rc.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("suite: case %d is not a mapping", i)
		}
		tc, err := parseCase(m, defaultTimelimit)
		if err != nil {
			return nil, fmt.Errorf("suite: case %d: %w", i, err)
		}
		suite.Cases = append(suite.Cases, tc)
	}

	return suite, nil
}

func parseCase(m map[string]interface{}, defaultTimelimit *time.Duration) (judging.TestCase, error) {
	tc := judging.TestCase{
		Name:      cast.ToString(m["name"]),
		Input:     []byte(cast.ToString(m["input"])),
		Timelimit: defaultTimelimit,
	}

	if tl, ok := m["timelimit"]; ok {
		d, err := parseDuration(tl)
		if err != nil {
			return tc, fmt.Errorf("invalid 'timelimit': %w", err)
		}
		tc.Timelimit = &d
	}

	expRaw, ok := m["expected"]
	if !ok {
		tc.Expected = judging.ExpectedOutput{Kind: judging.AcceptAny}
		return tc, nil
	}
	expMap, err := cast.ToStringMapE(expRaw)
	if err != nil {
		return tc, fmt.Errorf("invalid 'expected': %w", err)
	}

	kind := cast.ToString(expMap["kind"])
	exp := judging.ExpectedOutput{Text: cast.ToString(expMap["text"])}
	switch kind {
	case "", "accept-any":
		exp.Kind = judging.AcceptAny
	case "exact":
		exp.Kind = judging.Exact
	case "lines":
		exp.Kind = judging.Lines
	case "float":
		exp.Kind = judging.Float
		exp.AbsoluteError = cast.ToFloat64(expMap["absolute_error"])
		exp.RelativeError = cast.ToFloat64(expMap["relative_error"])
	default:
		return tc, fmt.Errorf("unknown expected.kind %q", kind)
	}
	tc.Expected = exp

	return tc, nil
}

func parseDuration(v interface{}) (time.Duration, error) {
	switch val := v.(type) {
	case string:
		return time.ParseDuration(val)
	default:
		seconds := cast.ToFloat64(v)
		return time.Duration(seconds * float64(time.Second)), nil
	}
}
