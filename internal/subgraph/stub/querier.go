package stub

import (
	"context"
	"encoding/json"
	"fmt"
)

// Query is a recorded QuerySubgraph call.
type Query struct {
	Author string
	Name   string
	Query  string
}

// Querier implements subgraph.Querier for testing. Each subgraph name
// serves its responses in order, one per call.
type Querier struct {
	Responses map[string][][]byte
	Queries   []Query
	served    map[string]int
}

// NewQuerier creates a new stub querier.
func NewQuerier() *Querier {
	return &Querier{
		Responses: make(map[string][][]byte),
		served:    make(map[string]int),
	}
}

// QuerySubgraph returns the next queued response for name.
func (q *Querier) QuerySubgraph(_ context.Context, author, name, query string) ([]byte, error) {
	q.Queries = append(q.Queries, Query{Author: author, Name: name, Query: query})

	i := q.served[name]
	responses := q.Responses[name]
	if i >= len(responses) {
		return nil, fmt.Errorf("stub: no response queued for %s (call %d)", name, i+1)
	}
	q.served[name] = i + 1
	return responses[i], nil
}

// AddResponses queues raw response bodies for name.
func (q *Querier) AddResponses(name string, bodies ...[]byte) {
	q.Responses[name] = append(q.Responses[name], bodies...)
}

// AddRecords splits records into pages of pageSize and queues them for name,
// always ending with a short (possibly empty) page.
func (q *Querier) AddRecords(name, entity string, pageSize int, records []map[string]any) {
	for start := 0; ; start += pageSize {
		end := start + pageSize
		if end > len(records) {
			end = len(records)
		}
		q.AddResponses(name, Page(entity, records[start:end]))
		if end-start < pageSize {
			return
		}
	}
}

// Page builds a well-formed response body holding records under entity.
func Page(entity string, records []map[string]any) []byte {
	if records == nil {
		records = []map[string]any{}
	}
	body, err := json.Marshal(map[string]any{
		"data": map[string]any{entity: records},
	})
	if err != nil {
		panic(err)
	}
	return body
}
