// internal/models/narrative.go
package models

// ScrapedData is one retrieved real-world transition narrative.
// Immutable once created; many per Transition.
type ScrapedData struct {
	Source          string   `json:"source"`
	Content         string   `json:"content"`
	URL             string   `json:"url,omitempty"`
	PostDate        string   `json:"postDate,omitempty"`
	SkillsExtracted []string `json:"skillsExtracted"`
}

// DedupeKey identifies a narrative by its (source, url) pair.
func (s ScrapedData) DedupeKey() string {
	return s.Source + "|" + s.URL
}
