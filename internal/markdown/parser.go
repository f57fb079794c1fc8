// Package markdown splits Markdown source text into titled sections with
// byte offsets so generated questions can cite the exact span they came
// from.
package markdown

import "strings"

// Section is one heading-delimited span of a Markdown document.
// Offsets are byte positions into the original text; Text accumulates
// everything after the heading line up to the next heading of any level.
type Section struct {
	Heading     string `json:"heading"`
	Level       int    `json:"level"`
	Text        string `json:"text"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
	FileID      string `json:"file_id"`
}

// Span returns the section's span as [start, end) byte offsets.
func (s Section) Span() (int, int) {
	return s.StartOffset, s.EndOffset
}

// Parse splits text into sections in document order. A document with no
// headings yields a single level-0 section spanning the whole text; an
// empty or whitespace-only document yields no sections.
func Parse(text, fileID string) []Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var sections []Section
	current := -1 // index into sections, -1 before the first heading

	flush := func(end int) {
		if current >= 0 {
			sections[current].EndOffset = end
			sections[current].Text = strings.TrimRight(sections[current].Text, "\n")
		}
	}

	offset := 0
	for offset <= len(text) {
		lineEnd := strings.IndexByte(text[offset:], '\n')
		var line string
		next := len(text)
		if lineEnd >= 0 {
			line = text[offset : offset+lineEnd]
			next = offset + lineEnd + 1
		} else {
			line = text[offset:]
		}

		if level, heading, ok := headingLine(line); ok {
			flush(offset)
			sections = append(sections, Section{
				Heading:     heading,
				Level:       level,
				StartOffset: offset,
				FileID:      fileID,
			})
			current = len(sections) - 1
		} else if current >= 0 {
			sections[current].Text += line + "\n"
		} else if strings.TrimSpace(line) != "" && len(sections) == 0 {
			// Body text before any heading: open an untitled section
			// covering the document head.
			sections = append(sections, Section{
				Heading:     "",
				Level:       0,
				StartOffset: 0,
				FileID:      fileID,
			})
			current = 0
			sections[current].Text += line + "\n"
		}

		if lineEnd < 0 {
			break
		}
		offset = next
	}

	flush(len(text))
	return sections
}

// headingLine reports whether line is an ATX heading and returns its
// level (1-6) and title.
func headingLine(line string) (int, string, bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 { // 4+ spaces is an indented code block
		return 0, "", false
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}
	rest := trimmed[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, "", false
	}
	return level, strings.TrimSpace(rest), true
}
