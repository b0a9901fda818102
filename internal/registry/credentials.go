package registry

import (
	"fmt"
	"os"
	"strings"

	"github.com/monopub/engine/internal/errs"
)

const credentialLinePrefix = "//"
const credentialLineKey = "/:_authToken="

// Token reads host's auth token from the credentials file, or "" if absent.
func Token(credsPath, host string) (string, error) {
	lines, err := readCredLines(credsPath)
	if err != nil {
		return "", err
	}
	prefix := credentialLinePrefix + host + credentialLineKey
	for _, line := range lines {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimPrefix(line, prefix), nil
		}
	}
	return "", nil
}

// SaveToken writes or replaces host's auth token line in the credentials
// file, creating the file if it doesn't exist.
func SaveToken(credsPath, host, token string) error {
	lines, err := readCredLines(credsPath)
	if err != nil {
		return err
	}
	prefix := credentialLinePrefix + host + credentialLineKey
	newLine := fmt.Sprintf("%s%s", prefix, token)

	replaced := false
	for i, line := range lines {
		if strings.HasPrefix(line, prefix) {
			lines[i] = newLine
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, newLine)
	}
	return writeCredLines(credsPath, lines)
}

// RemoveToken deletes host's auth token line from the credentials file, if present.
func RemoveToken(credsPath, host string) error {
	lines, err := readCredLines(credsPath)
	if err != nil {
		return err
	}
	prefix := credentialLinePrefix + host + credentialLineKey
	out := lines[:0]
	for _, line := range lines {
		if !strings.HasPrefix(line, prefix) {
			out = append(out, line)
		}
	}
	return writeCredLines(credsPath, out)
}

func readCredLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errs.Wrap(errs.KindIO, "CREDS_READ_FAILED", "reading credentials file", err)
	}
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

func writeCredLines(path string, lines []string) error {
	out := strings.Join(lines, "\n")
	if len(lines) > 0 {
		out += "\n"
	}
	if err := os.WriteFile(path, []byte(out), 0o600); err != nil {
		return errs.Wrap(errs.KindIO, "CREDS_WRITE_FAILED", "writing credentials file", err)
	}
	return nil
}
