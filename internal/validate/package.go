package validate

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/monopub/engine/internal/config"
	"github.com/monopub/engine/internal/model"
)

// defaultSensitiveGlobs matches files that should never ship in a tarball.
var defaultSensitiveGlobs = []string{
	"**/.env",
	"**/.env.*",
	"**/*.pem",
	"**/*.key",
	"**/id_rsa*",
	"**/.npmrc",
	"**/.aws/credentials",
}

// sensitiveContentPattern looks for assignment of an apparent secret to a
// variable whose name suggests a credential.
var sensitiveContentPattern = regexp.MustCompile(`(?i)(api[_-]?key|secret|password|token|access[_-]?key)\s*[:=]\s*["']([A-Za-z0-9+/=_\-]{12,})["']`)

var placeholderPattern = regexp.MustCompile(`(?i)^(your[_-]?|change[_-]?me|xxx+|placeholder|example|dummy|<.*>|\$\{.*\})`)

var envVarRefPattern = regexp.MustCompile(`^process\.env\.|^\$\{?[A-Z_][A-Z0-9_]*\}?$`)

// ValidatePackage validates pkg's manifest and on-disk contents. tarballSize
// is the packed tarball size in bytes (0 if not yet known / packing skipped).
func ValidatePackage(pkg *model.Package, cfg *config.Config, tarballSize int64) *Result {
	r := &Result{Valid: true}

	if strings.TrimSpace(pkg.Name) == "" {
		r.addError("package at %s has no name", pkg.Dir)
	}
	if strings.TrimSpace(pkg.Version) == "" {
		r.addError("package %s has no version", pkg.Name)
	}

	if _, ok := pkg.Manifest["description"]; !ok {
		r.addWarning("package %s has no description", pkg.Name)
	}
	if _, ok := pkg.Manifest["license"]; !ok {
		r.addWarning("package %s has no license field", pkg.Name)
	}

	requiredFiles := cfg.Validation.RequiredFiles
	for _, name := range requiredFiles {
		if !fileExistsCaseInsensitive(pkg.Dir, name) {
			r.addError("package %s is missing required file %s", pkg.Name, name)
		}
	}

	maxSize := cfg.Validation.MaxPackageSize
	if maxSize > 0 && tarballSize > maxSize {
		r.addWarning("package %s tarball size %d exceeds configured max %d", pkg.Name, tarballSize, maxSize)
	}

	globs := cfg.Validation.SensitiveGlobs
	if len(globs) == 0 {
		globs = defaultSensitiveGlobs
	}
	for _, match := range findSensitiveFiles(pkg.Dir, globs) {
		r.addWarning("package %s contains a sensitive file: %s", pkg.Name, match)
	}
	for _, match := range findSensitiveContent(pkg.Dir) {
		r.addWarning("package %s contains a possible hardcoded secret in %s", pkg.Name, match)
	}

	return r
}

func fileExistsCaseInsensitive(dir, name string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if strings.EqualFold(e.Name(), name) {
			return true
		}
	}
	return false
}

func findSensitiveFiles(dir string, globs []string) []string {
	var matches []string
	for _, pattern := range globs {
		found, err := doublestar.Glob(os.DirFS(dir), pattern)
		if err != nil {
			continue
		}
		matches = append(matches, found...)
	}
	return matches
}

// sourceFileExtensions bounds the content scan to plausible source/config files.
var sourceFileExtensions = map[string]bool{
	".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".json": true, ".yaml": true, ".yml": true, ".env": true,
}

func findSensitiveContent(dir string) []string {
	var matches []string
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.Contains(path, string(filepath.Separator)+"node_modules"+string(filepath.Separator)) {
			return nil
		}
		if !sourceFileExtensions[filepath.Ext(path)] {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		for _, line := range strings.Split(string(data), "\n") {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "*") {
				continue
			}
			m := sensitiveContentPattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			value := m[2]
			if placeholderPattern.MatchString(value) || envVarRefPattern.MatchString(value) {
				continue
			}
			rel, relErr := filepath.Rel(dir, path)
			if relErr != nil {
				rel = path
			}
			matches = append(matches, rel)
			break
		}
		return nil
	})
	return matches
}
