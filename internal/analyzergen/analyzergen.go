// Package analyzergen implements the "Analyzer Generator" external
// collaborator spec §6 names: an ordered list of plugins that may
// override the analyzer a write or a query would otherwise use,
// identified by the same class names the Analyzer Factory resolves.
//
// Generators hand back a class name rather than a built analyzer
// instance — the Analyzer Factory already owns the only mechanism for
// turning a class name into a live, refcounted analyzer (and for
// releasing it), so there is nothing here to separately close: whichever
// name a generator settles on is the one name fed into the next
// analyzer.Factory.Build call, and that call's own Release handles
// teardown regardless of which generator, if any, changed it.
package analyzergen

import "github.com/docidx/docidx/internal/document"

// Generator is consulted once per IndexDocuments call (against the first
// document that survives the min_timestamp filter) and once per query,
// in registration order, each getting the chance to override the
// analyzer class the prior generator (or the index's declared default)
// would otherwise use. Returning an empty string leaves current
// unchanged.
type Generator interface {
	GenerateForIndexing(indexName string, doc *document.Document, current string) (string, error)
	GenerateForQuerying(indexName string, queryText string, current string) (string, error)
}

// ResolveForIndexing runs every generator against doc in order.
func ResolveForIndexing(generators []Generator, indexName string, doc *document.Document, current string) (string, error) {
	name := current
	for _, g := range generators {
		next, err := g.GenerateForIndexing(indexName, doc, name)
		if err != nil {
			return "", err
		}
		if next != "" {
			name = next
		}
	}
	return name, nil
}

// ResolveForQuerying runs every generator against queryText in order.
func ResolveForQuerying(generators []Generator, indexName, queryText, current string) (string, error) {
	name := current
	for _, g := range generators {
		next, err := g.GenerateForQuerying(indexName, queryText, name)
		if err != nil {
			return "", err
		}
		if next != "" {
			name = next
		}
	}
	return name, nil
}
