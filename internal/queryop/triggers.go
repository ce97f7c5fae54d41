package queryop

import "github.com/blevesearch/bleve/v2/search/query"

// QueryTrigger is the "Query Trigger" external collaborator spec §6
// names: each gets the parsed query and the original request in
// registration order, and may return a replacement. Returning nil
// leaves the query unchanged.
type QueryTrigger interface {
	ProcessQuery(indexName string, q query.Query, original *Query) (query.Query, error)
}
