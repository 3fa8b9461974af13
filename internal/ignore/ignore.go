// Package ignore implements a reference loader for the repository's
// ignore-file format (spec §6), producing a should_ignore(path) -> bool
// predicate. The engine's CLI contract treats ignore-pattern loading as an
// external collaborator (spec.md §1), but init/add/status still need a
// concrete default implementation to construct that closure from.
package ignore

import (
	"bufio"
	"io"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPatterns is written to the ignore file by `init` unless
// --no-ignore is given, grounded on original_source/src/config.rs's
// DEFAULT_IGNORE_PATTERNS constant.
var DefaultPatterns = []string{
	".blaze/",
	".git/",
	".DS_Store",
	"*.swp",
	"*.tmp",
	"*~",
}

// Pattern is one parsed line of an ignore file.
type Pattern struct {
	Raw       string
	IsDir     bool // trailing '/'
	IsExt     bool // bare "*.ext" form
	Extension string
	Glob      string
}

// Parse reads an ignore file's contents, skipping blank lines and '#'
// comments, per spec §6.
func Parse(r io.Reader) ([]Pattern, error) {
	var patterns []Pattern
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, parseLine(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

func parseLine(line string) Pattern {
	if strings.HasSuffix(line, "/") {
		return Pattern{Raw: line, IsDir: true, Glob: strings.TrimSuffix(line, "/")}
	}
	if strings.HasPrefix(line, "*.") && !strings.ContainsAny(line[2:], "*/") {
		return Pattern{Raw: line, IsExt: true, Extension: line[1:]} // keeps leading dot: ".ext"
	}
	return Pattern{Raw: line, Glob: line}
}

// Matcher evaluates a loaded pattern set against repository-relative,
// forward-slash paths.
type Matcher struct {
	patterns []Pattern
}

// NewMatcher builds a Matcher from previously parsed patterns.
func NewMatcher(patterns []Pattern) *Matcher {
	return &Matcher{patterns: patterns}
}

// ShouldIgnore reports whether path (forward-slash, relative to repo root)
// matches any loaded pattern. Directory patterns match the path itself or
// any of its ancestor directories; extension patterns match the path's
// suffix; everything else is matched with doublestar glob semantics
// (chosen over path/filepath.Match for its "**" recursive-directory
// support).
func (m *Matcher) ShouldIgnore(path string) bool {
	path = strings.TrimPrefix(path, "/")
	for _, p := range m.patterns {
		switch {
		case p.IsDir:
			if pathHasDirComponent(path, p.Glob) {
				return true
			}
		case p.IsExt:
			if strings.HasSuffix(path, p.Extension) {
				return true
			}
		default:
			if matched, _ := doublestar.Match(p.Glob, path); matched {
				return true
			}
			if base := lastComponent(path); base != path {
				if matched, _ := doublestar.Match(p.Glob, base); matched {
					return true
				}
			}
		}
	}
	return false
}

func pathHasDirComponent(path, dir string) bool {
	if strings.Contains(dir, "/") {
		return path == dir || strings.HasPrefix(path, dir+"/")
	}
	for _, part := range strings.Split(path, "/") {
		if part == dir {
			return true
		}
	}
	return false
}

func lastComponent(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
