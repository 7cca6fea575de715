// internal/store/elasticsearch_test.go
package store

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"careerpath-engine/internal/common/database"
	"careerpath-engine/internal/common/logger"
	"careerpath-engine/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeESTransport struct {
	mu      sync.Mutex
	paths   []string
	failing map[string]bool
}

func (f *fakeESTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	f.paths = append(f.paths, req.URL.Path)
	fail := f.failing[req.URL.Path]
	f.mu.Unlock()

	status := http.StatusCreated
	body := `{"result": "created"}`
	if fail {
		status = http.StatusInternalServerError
		body = `{"error": "rejected"}`
	}

	return &http.Response{
		StatusCode: status,
		Header: http.Header{
			"X-Elastic-Product": []string{"Elasticsearch"},
			"Content-Type":      []string{"application/json"},
		},
		Body: io.NopCloser(strings.NewReader(body)),
	}, nil
}

func newTestArchive(t *testing.T, transport *fakeESTransport) *NarrativeArchive {
	t.Helper()
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{"http://localhost:9200"},
		Transport: transport,
	})
	require.NoError(t, err)
	return NewNarrativeArchive(&database.ElasticsearchClient{Client: es}, logger.NewNoOpLogger())
}

func archiveTransition() models.Transition {
	return models.Transition{ID: "t-1", CurrentRole: "Data Analyst", TargetRole: "Data Engineer"}
}

func TestIndexNarratives_OneDocumentPerNarrative(t *testing.T) {
	transport := &fakeESTransport{}
	archive := newTestArchive(t, transport)

	err := archive.IndexNarratives(context.Background(), archiveTransition(), []models.ScrapedData{
		{Source: "reddit", Content: "story one", SkillsExtracted: []string{"sql"}},
		{Source: "blog", Content: "story two"},
	})
	require.NoError(t, err)

	require.Len(t, transport.paths, 2)
	assert.Equal(t, "/transition-narratives/_doc/t-1-0", transport.paths[0])
	assert.Equal(t, "/transition-narratives/_doc/t-1-1", transport.paths[1])
}

func TestIndexNarratives_RejectedDocumentSkipped(t *testing.T) {
	transport := &fakeESTransport{failing: map[string]bool{
		"/transition-narratives/_doc/t-1-1": true,
	}}
	archive := newTestArchive(t, transport)

	// a rejected document is logged and skipped, the rest still index
	err := archive.IndexNarratives(context.Background(), archiveTransition(), []models.ScrapedData{
		{Source: "reddit", Content: "story one"},
		{Source: "blog", Content: "story two"},
		{Source: "forum", Content: "story three"},
	})
	require.NoError(t, err)
	assert.Len(t, transport.paths, 3)
}

func TestIndexNarratives_EmptyInputIndexesNothing(t *testing.T) {
	transport := &fakeESTransport{}
	archive := newTestArchive(t, transport)

	err := archive.IndexNarratives(context.Background(), archiveTransition(), nil)
	require.NoError(t, err)
	assert.Empty(t, transport.paths)
}
