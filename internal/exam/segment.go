package exam

import (
	"regexp"
	"strings"
)

// MinBlockContent is the trimmed content length a block must exceed after its
// boundary marker; shorter chunks are preamble or trailing fragments.
const MinBlockContent = 20

// DialectSpec describes how a source dialect marks question boundaries
type DialectSpec struct {
	Name string

	// Boundary matches the marker that opens every question block
	Boundary *regexp.Regexp

	// Heading optionally matches a section heading that applies to all
	// following blocks until the next heading
	Heading *regexp.Regexp
}

// Block is the raw text of one question occurrence
type Block struct {
	Index   int
	Text    string
	Heading string
}

// Segment splits text into question blocks using the dialect boundary.
// Text before the first boundary is dropped, as are chunks without enough
// content. Block order follows the document and indexes are contiguous.
func Segment(text string, spec DialectSpec) []Block {
	if spec.Boundary == nil {
		return nil
	}

	text = Normalize(text)
	locs := spec.Boundary.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}

	heading := lastHeading(text[:locs[0][0]], spec.Heading)
	blocks := make([]Block, 0, len(locs))

	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}

		chunk := text[loc[0]:end]
		next := heading

		// A heading inside the chunk belongs to the blocks after it
		if spec.Heading != nil {
			markerLen := loc[1] - loc[0]
			if h := spec.Heading.FindStringIndex(chunk[markerLen:]); h != nil {
				cut := markerLen + h[0]
				next = strings.TrimSpace(chunk[cut:])
				chunk = chunk[:cut]
			}
		}

		content := strings.TrimSpace(chunk[loc[1]-loc[0]:])
		if len(content) > MinBlockContent {
			blocks = append(blocks, Block{
				Index:   len(blocks),
				Text:    strings.TrimSpace(chunk),
				Heading: heading,
			})
		}

		heading = next
	}

	return blocks
}

// lastHeading returns the text from the last heading match in preamble
func lastHeading(preamble string, pattern *regexp.Regexp) string {
	if pattern == nil {
		return ""
	}
	locs := pattern.FindAllStringIndex(preamble, -1)
	if len(locs) == 0 {
		return ""
	}
	return strings.TrimSpace(preamble[locs[len(locs)-1][0]:])
}
