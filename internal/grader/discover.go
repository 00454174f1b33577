package grader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Submission is one student's hand-in. Archive is empty when the student's
// directory holds no matching archive.
type Submission struct {
	Name       string // student directory name, or archive stem for loose files
	Dir        string
	Archive    string
	Candidates int // matching archives found; only the first by name is graded
}

// Missing reports whether no archive was found for the submission.
func (s Submission) Missing() bool { return s.Archive == "" }

// Ambiguous reports whether the student handed in more than one archive.
func (s Submission) Ambiguous() bool { return s.Candidates > 1 }

// Discover lists the submissions below dir: one per subdirectory, holding
// the first archive (by name) matching glob, plus one per matching archive
// stored directly in dir. Hidden entries are skipped. Results are sorted by
// name.
func Discover(dir, glob string) ([]Submission, error) {
	if _, err := filepath.Match(glob, ""); err != nil {
		return nil, fmt.Errorf("grader: archive glob %q: %w", glob, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("grader: reading %s: %w", dir, err)
	}

	var subs []Submission
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		full := filepath.Join(dir, name)
		if !e.IsDir() {
			if ok, _ := filepath.Match(glob, name); ok {
				stem := strings.TrimSuffix(name, filepath.Ext(name))
				subs = append(subs, Submission{Name: stem, Dir: dir, Archive: full, Candidates: 1})
			}
			continue
		}
		archives, err := matching(full, glob)
		if err != nil {
			return nil, err
		}
		sub := Submission{Name: name, Dir: full, Candidates: len(archives)}
		if len(archives) > 0 {
			sub.Archive = archives[0]
		}
		subs = append(subs, sub)
	}

	sort.SliceStable(subs, func(i, j int) bool { return subs[i].Name < subs[j].Name })
	return subs, nil
}

// matching returns the regular files in dir whose names match glob, sorted
// by name as os.ReadDir returns them.
func matching(dir, glob string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("grader: reading %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if ok, _ := filepath.Match(glob, e.Name()); ok {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

// MatchArchive maps a changed path back to the submission it belongs to.
// It reports false when path is not an archive matching glob inside dir or
// one of its direct subdirectories.
func MatchArchive(dir, glob, path string) (Submission, bool) {
	rel, err := filepath.Rel(dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return Submission{}, false
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return Submission{}, false
	}
	if ok, _ := filepath.Match(glob, base); !ok {
		return Submission{}, false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	switch len(parts) {
	case 1:
		return Submission{Name: strings.TrimSuffix(base, filepath.Ext(base)), Dir: dir, Archive: path}, true
	case 2:
		if strings.HasPrefix(parts[0], ".") {
			return Submission{}, false
		}
		return Submission{Name: parts[0], Dir: filepath.Join(dir, parts[0]), Archive: path}, true
	default:
		return Submission{}, false
	}
}
