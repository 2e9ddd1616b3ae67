package subgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"opium-checker/internal/observability"
)

// DefaultAuthor owns the Opium subgraphs.
const DefaultAuthor = "opiumprotocol"

// DefaultPageSize is the number of records requested per page.
const DefaultPageSize = 100

// IndexerQueryError is returned when a page cannot be fetched or parsed.
type IndexerQueryError struct {
	Entity string
	Skip   int
	Reason string
	Err    error
}

func (e *IndexerQueryError) Error() string {
	msg := fmt.Sprintf("subgraph query %s (skip %d): %s", e.Entity, e.Skip, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *IndexerQueryError) Unwrap() error {
	return e.Err
}

// Fetcher pulls every record of an Entity page by page.
type Fetcher struct {
	querier  Querier
	author   string
	pageSize int
	logger   *zap.Logger
}

// NewFetcher creates a Fetcher. Zero values fall back to the defaults.
func NewFetcher(querier Querier, author string, pageSize int, logger *zap.Logger) *Fetcher {
	if author == "" {
		author = DefaultAuthor
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		querier:  querier,
		author:   author,
		pageSize: pageSize,
		logger:   logger,
	}
}

// PageSize returns the configured page size.
func (f *Fetcher) PageSize() int {
	return f.pageSize
}

// page is the response envelope. Data is kept raw so a missing entity
// field can be told apart from an empty one.
type page struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchAll returns all records of entity in fetch order. Fetching stops at
// the first page holding fewer than pageSize records.
func (f *Fetcher) FetchAll(ctx context.Context, subgraphName string, entity Entity) ([]json.RawMessage, error) {
	var result []json.RawMessage
	skip := 0

	for {
		records, err := f.fetchPage(ctx, subgraphName, entity, skip)
		if err != nil {
			return nil, err
		}
		observability.RecordSubgraphPage()

		result = append(result, records...)
		skip += len(records)

		f.logger.Debug("subgraph page fetched",
			zap.String("entity", entity.Name),
			zap.Int("records", len(records)),
			zap.Int("skip", skip),
		)

		if len(records) < f.pageSize {
			return result, nil
		}
	}
}

func (f *Fetcher) fetchPage(ctx context.Context, subgraphName string, entity Entity, skip int) ([]json.RawMessage, error) {
	body, err := f.querier.QuerySubgraph(ctx, f.author, subgraphName, entity.Query(f.pageSize, skip))
	if err != nil {
		return nil, &IndexerQueryError{Entity: entity.Name, Skip: skip, Reason: "query failed", Err: err}
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &IndexerQueryError{Entity: entity.Name, Skip: skip, Reason: "malformed response", Err: err}
	}

	if len(p.Errors) > 0 {
		msgs := make([]string, len(p.Errors))
		for i, e := range p.Errors {
			msgs[i] = e.Message
		}
		return nil, &IndexerQueryError{Entity: entity.Name, Skip: skip, Reason: "graphql errors: " + strings.Join(msgs, "; ")}
	}

	if p.Data == nil {
		return nil, &IndexerQueryError{Entity: entity.Name, Skip: skip, Reason: "no data object"}
	}

	raw, ok := p.Data[entity.Name]
	if !ok || string(raw) == "null" {
		return nil, &IndexerQueryError{Entity: entity.Name, Skip: skip, Reason: "no " + entity.Name + " array"}
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &IndexerQueryError{Entity: entity.Name, Skip: skip, Reason: entity.Name + " is not an array", Err: err}
	}

	return records, nil
}
