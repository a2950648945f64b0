package exam

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Academic levels derived from course numbers
const (
	LevelUndergraduate = "Undergraduate"
	LevelGraduate      = "Graduate"
)

// nclexDomain pairs the label as it appears in source exports with the label
// emitted in output.
type nclexDomain struct {
	source string
	label  string
}

// The ten NCLEX client-need domains. One export label is truncated and is
// corrected on output.
var nclexDomains = []nclexDomain{
	{"Basic Care and Comfort", "Basic Care and Comfort"},
	{"Fundamentals Review", "Fundamentals Review"},
	{"Health Promotion and Maintenance", "Health Promotion and Maintenance"},
	{"Management of Care", "Management of Care"},
	{"Medical Calculations", "Medical Calculations"},
	{"Pharmalogical and Parenteral Therapies", "Pharmalogical and Parenteral Therapies"},
	{"Physiological Adaptation", "Physiological Adaptation"},
	{"Psychosocial Integrity", "Psychosocial Integrity"},
	{"Reduction of Risk Potentia", "Reduction of Risk Potential"},
	{"Safety and Infection Control", "Safety and Infection Control"},
}

// Tags that only group other tags or mark an import batch
var (
	adminTagPrefixes = []string{"imports", "import:", "import "}
	groupingLabels   = map[string]bool{
		"topical":          true,
		"topics":           true,
		"blooms taxonomy":  true,
		"bloom's taxonomy": true,
		"nclex":            true,
		"nclex categories": true,
		"course":           true,
		"courses":          true,
	}
)

var (
	tagSeparators = regexp.MustCompile(`[,;\n]`)
	coursePattern = regexp.MustCompile(`\b([A-Z]{2,4})\s*(\d{3})\b`)
	// looseCourse also accepts lower-case codes; only used to spot restatements
	looseCourse   = regexp.MustCompile(`(?i)\b([a-z]{2,4})\s*(\d{3})\b`)
	bloomPattern  = regexp.MustCompile(`^(0[1-6])\s*[-–:.]?\s*(\p{L}[\p{L} ]*)$`)
	bloomPrefix   = regexp.MustCompile(`^0[1-6]\s*[-–:.]?\s*`)
)

// ResolveTags parses a free-text category blob into normalized taxonomy
// fields. Tags claimed as course, Bloom or domain never appear as topics.
func ResolveTags(blob string) Taxonomy {
	var t Taxonomy
	tags := splitTags(blob)
	claimed := make(map[string]bool)

	for _, tag := range tags {
		if course, ok := matchCourse(tag); ok {
			t.Course = course
			t.Level = DeriveLevel(course)
			claimed[tagKey(tag)] = true
			break
		}
	}

	for _, tag := range tags {
		if bloom, ok := CanonicalBloom(tag); ok {
			t.Bloom = bloom
			claimed[tagKey(tag)] = true
			break
		}
	}

	for _, tag := range tags {
		if domain, ok := matchDomain(tag); ok {
			t.Domain = domain
			claimed[tagKey(tag)] = true
			claimed[tagKey(domain)] = true
			break
		}
	}

	seen := make(map[string]bool)
	for _, tag := range tags {
		if claimed[tagKey(tag)] || isAdminTag(tag) || restatesClaim(tag, t) {
			continue
		}
		topic := topicLabel(tag)
		key := tagKey(topic)
		if topic == "" || claimed[key] || seen[key] || groupingLabels[key] {
			continue
		}
		seen[key] = true
		t.Topics = append(t.Topics, topic)
	}

	return t
}

// DeriveLevel maps a course code to its academic level: 100-399 is
// undergraduate, 500-899 graduate, anything else unspecified.
func DeriveLevel(course string) string {
	m := coursePattern.FindStringSubmatch(course)
	if m == nil {
		return ""
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return ""
	}
	switch {
	case n >= 100 && n <= 399:
		return LevelUndergraduate
	case n >= 500 && n <= 899:
		return LevelGraduate
	default:
		return ""
	}
}

// CanonicalBloom normalizes a Bloom's taxonomy tag such as "02 - understanding"
// or "Blooms taxonomy/02 Understanding" to "02 Understanding". Applying it to
// its own output returns the same string.
func CanonicalBloom(tag string) (string, bool) {
	m := bloomPattern.FindStringSubmatch(trailingSegment(tag))
	if m == nil {
		return "", false
	}
	// Casers carry state and cannot be shared across goroutines
	label := cases.Title(language.English).String(collapseSpace(m[2]))
	return m[1] + " " + label, true
}

func matchCourse(tag string) (string, bool) {
	return courseCode(coursePattern, tag)
}

func courseCode(pattern *regexp.Regexp, tag string) (string, bool) {
	m := pattern.FindStringSubmatch(tag)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]) + " " + m[2], true
}

func matchDomain(tag string) (string, bool) {
	lower := strings.ToLower(tag)
	for _, d := range nclexDomains {
		if strings.Contains(lower, strings.ToLower(d.source)) {
			return d.label, true
		}
	}
	return "", false
}

// restatesClaim reports whether tag is another spelling of the course, Bloom
// or domain tag already claimed.
func restatesClaim(tag string, t Taxonomy) bool {
	if domain, ok := matchDomain(tag); ok && domain == t.Domain {
		return true
	}
	if course, ok := courseCode(looseCourse, tag); ok && course == t.Course {
		return true
	}
	if bloom, ok := CanonicalBloom(tag); ok && bloom == t.Bloom {
		return true
	}
	return false
}

func isAdminTag(tag string) bool {
	key := tagKey(tag)
	for _, p := range adminTagPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return groupingLabels[key]
}

// topicLabel reduces "Group/Sub/Topic" to "Topic" and drops Bloom-style
// numeric prefixes.
func topicLabel(tag string) string {
	return strings.TrimSpace(bloomPrefix.ReplaceAllString(trailingSegment(tag), ""))
}

func trailingSegment(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.LastIndex(tag, "/"); i >= 0 {
		return strings.TrimSpace(tag[i+1:])
	}
	return tag
}

func splitTags(blob string) []string {
	parts := tagSeparators.Split(blob, -1)
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = collapseSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

// tagKey is the comparison form of a tag: trimmed and case-folded
func tagKey(tag string) string {
	return strings.ToLower(collapseSpace(tag))
}
