package agents

import (
	"path"
	"strings"
)

// CanonicalizePath maps a cognitive agent's files_to_create[] entry to
// its canonical project-relative location, by filename content
// heuristics (spec §6 "Project layout for emitted files"). The
// heuristic precedence is: test files, then language-specific source
// buckets by filename prefix, then extension-based buckets.
func CanonicalizePath(name string) string {
	base := path.Base(name)
	lower := strings.ToLower(base)
	ext := strings.ToLower(path.Ext(base))

	switch {
	case strings.HasPrefix(lower, "test"):
		return path.Join("tests", base)
	case strings.HasPrefix(lower, "model") && ext == ".py":
		return path.Join("src/models", base)
	case strings.HasPrefix(lower, "service"):
		return path.Join("src/services", base)
	case strings.HasPrefix(lower, "util") || strings.HasPrefix(lower, "helper"):
		return path.Join("src/utils", base)
	case (strings.HasPrefix(lower, "core") || strings.HasPrefix(lower, "main")) && ext == ".py":
		return path.Join("src/core", base)
	case ext == ".py":
		return path.Join("src", base)
	case ext == ".md":
		return path.Join("docs", base)
	case ext == ".json" || ext == ".yaml" || ext == ".yml" || ext == ".ini" || ext == ".conf":
		return path.Join("config", base)
	case ext == ".sh" || strings.HasPrefix(lower, "script"):
		return path.Join("scripts", base)
	case ext == ".csv" || ext == ".txt" || ext == ".dat":
		return path.Join("data", base)
	default:
		return base
	}
}

// RootProjectFiles lists the scaffold files/markers a fresh project
// workspace is initialised with (spec §6), path relative to the
// project root.
var RootProjectFiles = map[string]string{
	"README.md":         "# Project\n\nGenerated by swarmmind.\n",
	".gitignore":        "__pycache__/\n*.pyc\n.env\n",
	"requirements.txt":  "",
	"setup.py":          "",
	"src/__init__.py":   "",
	"tests/__init__.py": "",
}
