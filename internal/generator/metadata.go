package generator

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Label tags a metadata trailer line.
type Label int

const (
	LabelUnknown Label = iota
	LabelAuthor
	LabelConfig
	LabelTemplate
)

var labelNames = map[string]Label{
	"AUTHOR":   LabelAuthor,
	"CONFIG":   LabelConfig,
	"TEMPLATE": LabelTemplate,
}

func (l Label) String() string {
	switch l {
	case LabelAuthor:
		return "AUTHOR"
	case LabelConfig:
		return "CONFIG"
	case LabelTemplate:
		return "TEMPLATE"
	}
	return "UNKNOWN"
}

// trailerLines is the number of metadata lines at the end of a test header.
const trailerLines = 3

// markerRe matches the tokens a metadata line is split at. A bare '#' starts
// a trailing comment, which is how "CONFIG: a.toml  # note" yields "a.toml".
var markerRe = regexp.MustCompile(`[A-Z]+:|#`)

// MetadataLine is one parsed trailer line.
type MetadataLine struct {
	Label Label
	// Raw is the label text as written, without the colon.
	Raw   string
	Value string
}

// ParseMetadataLine splits line at its first marker. The label is the marker
// without its colon and the value is the trimmed text up to the next marker.
// A '#' marker or an unrecognized label yields LabelUnknown; a line with no
// marker at all is an error.
func ParseMetadataLine(line string) (MetadataLine, error) {
	locs := markerRe.FindAllStringIndex(line, 2)
	if len(locs) == 0 {
		return MetadataLine{}, fmt.Errorf("no label in %q", strings.TrimSpace(line))
	}
	marker := line[locs[0][0]:locs[0][1]]
	raw := strings.TrimSuffix(marker, ":")
	if marker == "#" {
		raw = ""
	}
	end := len(line)
	if len(locs) > 1 {
		end = locs[1][0]
	}
	return MetadataLine{
		Label: labelNames[raw],
		Raw:   raw,
		Value: strings.TrimSpace(line[locs[0][1]:end]),
	}, nil
}

// Trailer holds the values of a complete metadata trailer.
type Trailer struct {
	Author   string
	Config   string
	Template string
}

func (t *Trailer) set(l Label, value string) {
	switch l {
	case LabelAuthor:
		t.Author = value
	case LabelConfig:
		t.Config = value
	case LabelTemplate:
		t.Template = value
	}
}

// readLines splits r into lines without a length limit. A final line without
// a newline is kept and carriage returns before newlines are dropped.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(line, "\n")
			lines = append(lines, strings.TrimSuffix(line, "\r"))
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// ReadTrailer reads a test header and parses its metadata trailer: the last
// three lines once trailing blank lines are removed. The returned error is
// an *Error naming path.
func ReadTrailer(r io.Reader, path string) (Trailer, []MetadataLine, error) {
	lines, err := readLines(r)
	if err != nil {
		return Trailer{}, nil, headerError(KindValidation, path, "Cannot read file: "+err.Error())
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) < trailerLines {
		return Trailer{}, nil, headerError(KindParse, path, "Missing author/config/template info.")
	}

	parsed := make([]MetadataLine, 0, trailerLines)
	seen := make(map[Label]bool, trailerLines)
	var t Trailer
	for _, line := range lines[len(lines)-trailerLines:] {
		ml, err := ParseMetadataLine(line)
		if err != nil {
			return Trailer{}, nil, headerError(KindParse, path, "Unrecognized author/config/template info lines at the rear.")
		}
		parsed = append(parsed, ml)
		seen[ml.Label] = true
		t.set(ml.Label, ml.Value)
	}
	// Three lines cover all three labels only when each appears exactly once.
	if len(seen) != trailerLines || seen[LabelUnknown] {
		return Trailer{}, nil, headerError(KindParse, path, "Missing author/config/template info.")
	}
	return t, parsed, nil
}
