// Package prompts holds the LLM prompts, embedded at build time.
package prompts

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed *.md
var PromptsFS embed.FS

// Load returns the named prompt with surrounding whitespace trimmed.
func Load(name string) (string, error) {
	data, err := PromptsFS.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}
