package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizePathHeuristics(t *testing.T) {
	cases := map[string]string{
		"test_models.py":   "tests/test_models.py",
		"model_user.py":    "src/models/model_user.py",
		"service_auth.go":  "src/services/service_auth.go",
		"util_strings.py":  "src/utils/util_strings.py",
		"helper_time.py":   "src/utils/helper_time.py",
		"core_engine.py":   "src/core/core_engine.py",
		"main.py":          "src/core/main.py",
		"notes.py":         "src/notes.py",
		"README_extra.md":  "docs/README_extra.md",
		"settings.yaml":    "config/settings.yaml",
		"deploy.sh":        "scripts/deploy.sh",
		"report.csv":       "data/report.csv",
		"weird.xyz":        "weird.xyz",
	}
	for input, want := range cases {
		assert.Equal(t, want, CanonicalizePath(input), input)
	}
}
