// internal/stages/source-retriever/models.go
package sourceretriever

import "careerpath-engine/internal/models"

type Input struct {
	TransitionID string `json:"transitionId"`
	CurrentRole  string `json:"currentRole"`
	TargetRole   string `json:"targetRole"`
}

type Output struct {
	Narratives       []models.ScrapedData `json:"narratives"`
	QueriesIssued    int                  `json:"queriesIssued"`
	QueriesSucceeded int                  `json:"queriesSucceeded"`
}

// narrativePayload is the shape each retrieval query asks the provider for.
type narrativePayload struct {
	Source   string `json:"source"`
	Content  string `json:"content"`
	URL      string `json:"url,omitempty"`
	PostDate string `json:"postDate,omitempty"`
}
