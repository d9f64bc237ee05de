package api

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

var errNoJobsRoot = errors.New("job file access is disabled: no jobs root configured")

// resolveJobPath maps a job file path onto root. Relative paths are taken from
// root; absolute paths must already lie inside it. The result is absolute.
func resolveJobPath(root, path string) (string, error) {
	if root == "" {
		return "", errNoJobsRoot
	}
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(root, resolved)
	}
	resolved = filepath.Clean(resolved)
	if err := checkContained(root, resolved, path); err != nil {
		return "", err
	}

	// Symlinks inside root may still point outside it.
	realRoot, err := evalExistingPrefix(root)
	if err != nil {
		return "", fmt.Errorf("invalid jobs root: %w", err)
	}
	realPath, err := evalExistingPrefix(resolved)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	if err := checkContained(realRoot, realPath, path); err != nil {
		return "", err
	}
	return resolved, nil
}

func checkContained(root, resolved, original string) error {
	relative, err := filepath.Rel(root, resolved)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", original, err)
	}
	if relative == "." || relative == ".." || strings.HasPrefix(relative, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes the jobs root", original)
	}
	return nil
}

// evalExistingPrefix resolves symlinks in the longest existing prefix of path
// and appends the components that do not exist yet.
func evalExistingPrefix(path string) (string, error) {
	current, rest := path, ""
	for {
		real, err := filepath.EvalSymlinks(current)
		if err == nil {
			return filepath.Join(real, rest), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path, nil
		}
		rest = filepath.Join(filepath.Base(current), rest)
		current = parent
	}
}

// jobPath resolves one job file path, recording a validation error when it is
// missing or escapes the jobs root.
func (api *API) jobPath(result *ValidationResult, field, path, label string) string {
	if path == "" {
		result.AddError(field, label+" is required")
		return ""
	}
	resolved, err := resolveJobPath(api.jobsRoot, path)
	if err != nil {
		result.AddError(field, err.Error())
		return ""
	}
	return resolved
}

// resolveJobPaths checks the dataset paths of a file to file job.
func (api *API) resolveJobPaths(input, output string) (string, string, *ValidationResult) {
	result := newValidationResult()
	in := api.jobPath(result, "input", input, "Input dataset path")
	out := api.jobPath(result, "output", output, "Output path")
	if in != "" && in == out {
		result.AddError("output", "Output must differ from input")
	}
	return in, out, result
}
