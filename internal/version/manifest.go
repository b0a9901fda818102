package version

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/monopub/engine/internal/errs"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const manifestFile = "package.json"

// readVersion reads just the version field from a package's manifest,
// without parsing the whole document.
func readVersion(dir string) (string, error) {
	path := filepath.Join(dir, manifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errs.Wrap(errs.KindIO, "MANIFEST_READ", "reading manifest "+path, err)
	}
	v := gjson.GetBytes(data, "version")
	if !v.Exists() {
		return "", errs.New(errs.KindIO, "MANIFEST_MISSING_VERSION", "manifest "+path+" has no version field")
	}
	return v.String(), nil
}

// writeVersion rewrites only the "version" field of a manifest in place,
// preserving every other field, key order, and the file's two-space
// indentation with a trailing newline. Unlike a marshal-the-whole-struct
// approach, this can never drop or reorder fields the engine doesn't know about.
func writeVersion(dir, newVersion string) error {
	path := filepath.Join(dir, manifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(errs.KindIO, "MANIFEST_READ", "reading manifest "+path, err)
	}

	updated, err := sjson.SetBytesOptions(data, "version", newVersion, &sjson.Options{
		Optimistic:     true,
		ReplaceInPlace: true,
	})
	if err != nil {
		return errs.Wrap(errs.KindIO, "MANIFEST_WRITE", "updating version in "+path, err)
	}

	formatted, err := reindent(updated)
	if err != nil {
		return errs.Wrap(errs.KindIO, "MANIFEST_WRITE", "reformatting "+path, err)
	}

	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return errs.Wrap(errs.KindIO, "MANIFEST_WRITE", "writing "+path, err)
	}
	return nil
}

// rewriteWorkspaceDependency sets the given dependency's specifier to an
// exact version in a dependent package's manifest, when that specifier
// currently uses the workspace protocol.
func rewriteWorkspaceDependency(dir, depName, exactVersion string) error {
	path := filepath.Join(dir, manifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.Wrap(errs.KindIO, "MANIFEST_READ", "reading manifest "+path, err)
	}

	changed := false
	out := data
	for _, section := range []string{"dependencies", "devDependencies", "peerDependencies"} {
		field := section + "." + gjsonEscape(depName)
		cur := gjson.GetBytes(out, field)
		if !cur.Exists() {
			continue
		}
		spec := cur.String()
		if len(spec) < len("workspace:") || spec[:len("workspace:")] != "workspace:" {
			continue
		}
		out, err = sjson.SetBytesOptions(out, field, exactVersion, &sjson.Options{Optimistic: true, ReplaceInPlace: true})
		if err != nil {
			return errs.Wrap(errs.KindIO, "MANIFEST_WRITE", "rewriting workspace dependency in "+path, err)
		}
		changed = true
	}
	if !changed {
		return nil
	}

	formatted, err := reindent(out)
	if err != nil {
		return errs.Wrap(errs.KindIO, "MANIFEST_WRITE", "reformatting "+path, err)
	}
	return os.WriteFile(path, formatted, 0o644)
}

func gjsonEscape(key string) string {
	out := make([]byte, 0, len(key)+2)
	for i := 0; i < len(key); i++ {
		if key[i] == '.' || key[i] == '*' || key[i] == '?' {
			out = append(out, '\\')
		}
		out = append(out, key[i])
	}
	return out
}

func reindent(data []byte) ([]byte, error) {
	return fmt.Appendf(nil, "%s\n", data), nil
}
