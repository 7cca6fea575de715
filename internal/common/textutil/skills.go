// internal/common/textutil/skills.go
package textutil

import (
	"strings"
)

// skillKeywords is the controlled vocabulary scanned for in narrative text.
// Multi-word entries are matched as phrases, single words against token
// boundaries so "go" does not fire inside "going".
var skillKeywords = []string{
	"python", "golang", "go", "java", "javascript", "typescript", "rust",
	"c++", "sql", "nosql", "kubernetes", "docker", "terraform", "aws",
	"gcp", "azure", "react", "node.js", "graphql", "rest api", "grpc",
	"machine learning", "deep learning", "data analysis", "statistics",
	"etl", "data modeling", "data pipelines", "spark", "kafka", "airflow",
	"product management", "roadmap", "stakeholder management", "a/b testing",
	"user research", "agile", "scrum", "leadership", "mentoring",
	"system design", "distributed systems", "microservices", "ci/cd",
	"observability", "security", "networking", "communication",
	"project management", "prioritization", "analytics", "experimentation",
}

// synonyms maps surface variants onto canonical skill names.
var synonyms = map[string]string{
	"golang":              "go",
	"js":                  "javascript",
	"ts":                  "typescript",
	"k8s":                 "kubernetes",
	"ml":                  "machine learning",
	"postgres":            "sql",
	"postgresql":          "sql",
	"mysql":               "sql",
	"amazon web services": "aws",
	"google cloud":        "gcp",
	"ab testing":          "a/b testing",
	"a/b tests":           "a/b testing",
	"rest apis":           "rest api",
	"data pipeline":       "data pipelines",
	"micro-services":      "microservices",
	"cicd":                "ci/cd",
}

// NormalizeSkill lowercases, trims, and collapses known synonyms so that
// frequency counting aggregates variants of the same skill.
func NormalizeSkill(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Join(strings.Fields(s), " ")
	if canonical, ok := synonyms[s]; ok {
		return canonical
	}
	return s
}

// ExtractSkills scans text for known skill keywords and returns the
// canonical names found, deduplicated, in vocabulary order.
func ExtractSkills(text string) []string {
	lower := strings.ToLower(text)
	tokens := tokenSet(lower)

	var found []string
	seen := make(map[string]bool)
	for _, kw := range skillKeywords {
		var hit bool
		if strings.ContainsAny(kw, " /.+") {
			hit = strings.Contains(lower, kw)
		} else {
			hit = tokens[kw]
		}
		if !hit {
			continue
		}
		canonical := NormalizeSkill(kw)
		if !seen[canonical] {
			seen[canonical] = true
			found = append(found, canonical)
		}
	}
	return found
}

func tokenSet(lower string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(lower, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return false
		case r == '+' || r == '#' || r == '/' || r == '.':
			return false
		default:
			return true
		}
	}) {
		tokens[strings.Trim(tok, "./")] = true
	}
	return tokens
}
