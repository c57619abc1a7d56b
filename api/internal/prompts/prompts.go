// Package prompts holds the system prompts of the assistant. Defaults are
// embedded; a file <dir>/<name>.txt overrides the embedded text.
package prompts

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	Classify   = "classify.system"
	Synthesize = "synthesize.system"
)

//go:embed defaults/*.txt
var defaults embed.FS

type Loader struct {
	Dir string
}

func NewLoader(dir string) *Loader { return &Loader{Dir: strings.TrimSpace(dir)} }

// Load returns the prompt text with every {{KEY}} replaced from vars.
func (l *Loader) Load(name string, vars map[string]string) (string, error) {
	text, err := l.raw(name)
	if err != nil {
		return "", err
	}
	for k, v := range vars {
		text = strings.ReplaceAll(text, "{{"+k+"}}", v)
	}
	return text, nil
}

func (l *Loader) raw(name string) (string, error) {
	if l != nil && l.Dir != "" {
		p := filepath.Join(l.Dir, name+".txt")
		if b, err := os.ReadFile(p); err == nil && len(strings.TrimSpace(string(b))) > 0 {
			return strings.TrimSpace(string(b)), nil
		}
	}
	b, err := defaults.ReadFile("defaults/" + name + ".txt")
	if err != nil {
		return "", fmt.Errorf("prompt %q not found", name)
	}
	return strings.TrimSpace(string(b)), nil
}
