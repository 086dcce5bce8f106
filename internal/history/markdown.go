package history

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/kovalyov-valentin/research-digest/internal/model"
)

const (
	StartMarker = "<!-- RESEARCH-HISTORY:START -->"
	EndMarker   = "<!-- RESEARCH-HISTORY:END -->"
)

var (
	weekHeading = regexp.MustCompile(`^## Week of (\d{4}-\d{2}-\d{2})\s*$`)
	entryLine   = regexp.MustCompile(`^- \*\*(\d{4}-\d{2}-\d{2})\*\* \[([^\]]*)\] (.*)$`)
	keyLine     = regexp.MustCompile(`^  - Key: (.+)$`)
	sourceLine  = regexp.MustCompile(`^  - Source: (\S+)\s*$`)
)

// MarkdownMirror writes the window into a framed block of a markdown file.
// Anything outside the frame is left untouched.
type MarkdownMirror struct {
	path string
}

func NewMarkdownMirror(path string) *MarkdownMirror {
	return &MarkdownMirror{path: path}
}

func (m *MarkdownMirror) Read() (Window, error) {
	raw, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	body, _, _, ok := splitFrame(string(raw))
	if !ok {
		return nil, nil
	}

	return ParseMarkdown(body)
}

func (m *MarkdownMirror) Write(window Window) error {
	var before, after string

	raw, err := os.ReadFile(m.path)
	switch {
	case err == nil:
		if _, b, a, ok := splitFrame(string(raw)); ok {
			before, after = b, a
		} else {
			before = string(raw)
			if before != "" && !strings.HasSuffix(before, "\n") {
				before += "\n"
			}
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return err
	}

	doc := before + StartMarker + "\n" + RenderMarkdown(window) + EndMarker + after
	if !strings.HasSuffix(doc, "\n") {
		doc += "\n"
	}

	return os.WriteFile(m.path, []byte(doc), 0o644)
}

// splitFrame returns the framed body and the text around the frame.
func splitFrame(doc string) (body, before, after string, ok bool) {
	start := strings.Index(doc, StartMarker)
	if start < 0 {
		return "", "", "", false
	}
	rest := doc[start+len(StartMarker):]

	end := strings.Index(rest, EndMarker)
	if end < 0 {
		return "", "", "", false
	}

	return rest[:end], doc[:start], rest[end+len(EndMarker):], true
}

// RenderMarkdown lays the window out newest week first, one section per project.
func RenderMarkdown(window Window) string {
	var b strings.Builder
	b.WriteString("# Research History\n")

	for _, week := range Prune(window, len(window)) {
		fmt.Fprintf(&b, "\n## Week of %s\n", week.WeekStart.Format(time.DateOnly))

		for _, project := range projectsInOrder(week.Entries) {
			fmt.Fprintf(&b, "\n### %s\n\n", strings.ToUpper(string(project)))

			for _, e := range week.Entries {
				if e.Project != project {
					continue
				}

				fmt.Fprintf(&b, "- **%s** [%s] %s\n", e.Date.Format(time.DateOnly), e.Category, oneLine(e.Summary))
				for _, kf := range e.KeyFindings {
					fmt.Fprintf(&b, "  - Key: %s\n", oneLine(kf))
				}
				for _, src := range e.Sources {
					fmt.Fprintf(&b, "  - Source: %s\n", src)
				}
			}
		}
	}

	b.WriteString("\n")
	return b.String()
}

// ParseMarkdown reads back what RenderMarkdown wrote.
func ParseMarkdown(body string) (Window, error) {
	var (
		window  Window
		project model.Project
		entry   *model.HistoryEntry
	)

	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case weekHeading.MatchString(line):
			start, err := time.Parse(time.DateOnly, weekHeading.FindStringSubmatch(line)[1])
			if err != nil {
				return nil, fmt.Errorf("parse week heading %q: %w", line, err)
			}
			window = append(window, model.WeeklyHistory{WeekStart: start})
			project, entry = "", nil

		case strings.HasPrefix(line, "### "):
			project = model.Project(strings.ToLower(strings.TrimSpace(line[4:])))
			entry = nil

		case entryLine.MatchString(line):
			if len(window) == 0 {
				continue
			}
			m := entryLine.FindStringSubmatch(line)
			date, err := time.Parse(time.DateOnly, m[1])
			if err != nil {
				return nil, fmt.Errorf("parse entry date %q: %w", line, err)
			}

			week := &window[len(window)-1]
			week.Entries = append(week.Entries, model.HistoryEntry{
				Date:     date,
				Project:  project,
				Category: model.Category(m[2]),
				Summary:  m[3],
			})
			entry = &week.Entries[len(week.Entries)-1]

		case entry != nil && keyLine.MatchString(line):
			entry.KeyFindings = append(entry.KeyFindings, keyLine.FindStringSubmatch(line)[1])

		case entry != nil && sourceLine.MatchString(line):
			entry.Sources = append(entry.Sources, sourceLine.FindStringSubmatch(line)[1])
		}
	}

	return window, scanner.Err()
}

func projectsInOrder(entries []model.HistoryEntry) []model.Project {
	var projects []model.Project
	seen := make(map[model.Project]bool)
	for _, e := range entries {
		if !seen[e.Project] {
			seen[e.Project] = true
			projects = append(projects, e.Project)
		}
	}
	return projects
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
