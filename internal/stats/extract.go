package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// searchResponse is the common envelope of a search-path response. Each
// aggregator unmarshals the raw aggregation payloads it asked for into its
// own bucket types.
type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]json.RawMessage `json:"aggregations"`
}

// decodeSearch consumes and closes a search response body.
func decodeSearch(res *esapi.Response) (*searchResponse, error) {
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("search returned %s: %s", res.Status(), strings.TrimSpace(string(body)))
	}

	var esResp searchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &esResp, nil
}

// unmarshalAgg decodes one named aggregation payload. A missing
// aggregation leaves the target at its zero value; an empty index pattern
// match returns no aggregations at all.
func unmarshalAgg(aggs map[string]json.RawMessage, name string, out any) error {
	raw, ok := aggs[name]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode %s aggregation: %w", name, err)
	}
	return nil
}

// bucketDay truncates a histogram bucket key such as
// "2026-01-01T00:00:00.000Z" to its calendar date.
func bucketDay(keyAsString string) string {
	if len(keyAsString) >= 10 {
		return keyAsString[:10]
	}
	return keyAsString
}

// countBucket is a date-histogram bucket carrying only its document count.
type countBucket struct {
	KeyAsString string `json:"key_as_string"`
	DocCount    int64  `json:"doc_count"`
}

type countBuckets struct {
	Buckets []countBucket `json:"buckets"`
}

// sumBucket is a date-histogram bucket with the byte-sum sub-aggregation.
type sumBucket struct {
	KeyAsString        string `json:"key_as_string"`
	OutBytesDeltaTotal struct {
		Value float64 `json:"value"`
	} `json:"out_bytes_delta_total"`
}

type sumBuckets struct {
	Buckets []sumBucket `json:"buckets"`
}

// cardinalityResult is the unique-sensor cardinality payload.
type cardinalityResult struct {
	Value int64 `json:"value"`
}

// jsonStrings unmarshals a field that may arrive as a single scalar or as
// an array of scalars. Asset records store MAC addresses both ways.
type jsonStrings []string

func (s *jsonStrings) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*s = jsonStrings{single}
		return nil
	}

	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(jsonStrings, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprint(item))
	}
	*s = out
	return nil
}

// Join renders the values newline-separated for tabular display.
func (s jsonStrings) Join() string {
	return strings.Join(s, "\n")
}
