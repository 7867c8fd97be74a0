package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PromptFile is a parsed markdown prompt with YAML front-matter. Prompt
// files live in <appdir>/prompts/ and become named system prompts the
// REPL can switch to with /prompt <name>.
type PromptFile struct {
	// Path is the relative path from the prompts directory.
	Path string `yaml:"-"`

	// Name identifies the prompt; derived from the filename when the
	// front-matter omits it.
	Name string `yaml:"name"`

	// Description is an optional one-line summary shown by /prompts.
	Description string `yaml:"description,omitempty"`

	// Enabled controls whether the prompt is listed. Nil means enabled.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Content is the markdown body after the front-matter; it becomes
	// the system prompt text.
	Content string `yaml:"-"`

	// FileModTime supports cache invalidation.
	FileModTime time.Time `yaml:"-"`
}

// IsEnabled reports whether the prompt is active; absent means enabled.
func (p *PromptFile) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

const frontMatterDelimiter = "---"

// ParsePromptFile parses a markdown file with optional YAML
// front-matter:
//
//	---
//	name: "math tutor"
//	description: "Step-by-step math help"
//	---
//
//	You are a patient math tutor...
//
// Without front-matter the entire file is the prompt content and the
// name derives from the filename.
func ParsePromptFile(path string, data []byte, modTime time.Time) (*PromptFile, error) {
	prompt := &PromptFile{
		Path:        path,
		FileModTime: modTime,
	}

	content := string(data)

	if strings.HasPrefix(strings.TrimSpace(content), frontMatterDelimiter) {
		lines := strings.Split(content, "\n")
		var frontMatterEnd int
		foundStart := false

		for i, line := range lines {
			if strings.TrimSpace(line) == frontMatterDelimiter {
				if !foundStart {
					foundStart = true
					continue
				}
				frontMatterEnd = i
				break
			}
		}

		if frontMatterEnd > 0 {
			frontMatter := strings.Join(lines[1:frontMatterEnd], "\n")
			if err := yaml.Unmarshal([]byte(frontMatter), prompt); err != nil {
				return nil, fmt.Errorf("failed to parse front-matter in %s: %w", path, err)
			}
			if frontMatterEnd+1 < len(lines) {
				prompt.Content = strings.TrimSpace(strings.Join(lines[frontMatterEnd+1:], "\n"))
			}
		} else {
			// Malformed front-matter: treat the whole file as content.
			prompt.Content = strings.TrimSpace(content)
		}
	} else {
		prompt.Content = strings.TrimSpace(content)
	}

	if prompt.Name == "" {
		base := filepath.Base(path)
		prompt.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return prompt, nil
}

// LoadPromptsFromDir loads all .md files under dir recursively,
// skipping prompts disabled in front-matter. A missing directory yields
// an empty library, not an error.
func LoadPromptsFromDir(dir string) ([]*PromptFile, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var prompts []*PromptFile

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}

		prompt, err := ParsePromptFile(rel, data, info.ModTime())
		if err != nil {
			return err
		}
		if prompt.IsEnabled() {
			prompts = append(prompts, prompt)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts from %s: %w", dir, err)
	}

	sort.Slice(prompts, func(i, j int) bool { return prompts[i].Name < prompts[j].Name })
	return prompts, nil
}

// FindPrompt returns the prompt with the given name, matched
// case-insensitively, or nil.
func FindPrompt(prompts []*PromptFile, name string) *PromptFile {
	for _, p := range prompts {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}
