package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docidx/docidx/internal/output"
	"github.com/docidx/docidx/internal/queryop"
)

type queryOptions struct {
	text     string
	start    int
	pageSize int
	sort     []string
	distinct bool
	fields   []string
	all      bool
}

func newQueryCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <name>",
		Short: "Run a query against an index and print the matching documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.text, "query", "", "Query string; empty matches every document")
	cmd.Flags().IntVar(&opts.start, "start", 0, "Zero-based offset of the first result")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 20, "Number of results to return")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Return every matching result instead of paging")
	cmd.Flags().StringArrayVar(&opts.sort, "sort", nil, "Sort field, optionally prefixed with - for descending (repeatable)")
	cmd.Flags().BoolVar(&opts.distinct, "distinct", false, "Suppress field-for-field duplicate results")
	cmd.Flags().StringArrayVar(&opts.fields, "field", nil, "Field to project into each result (repeatable; default: all declared fields)")

	return cmd
}

func runQuery(cmd *cobra.Command, name string, opts queryOptions) error {
	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	idx, err := e.Get(name)
	if err != nil {
		return fmt.Errorf("opening index %q: %w", name, err)
	}

	schema, ok := e.Schema(name)
	if !ok {
		return fmt.Errorf("no schema recorded for index %q", name)
	}

	fields := opts.fields
	if len(fields) == 0 {
		for _, f := range schema.Fields {
			fields = append(fields, f.Name)
		}
	}

	pageSize := opts.pageSize
	if opts.all {
		pageSize = queryop.PageSizeAll
	}

	result, err := queryop.Execute(queryop.Request{
		IndexName:  name,
		Definition: schema.Definition(),
		Searcher:   idx.GetSearcher,
		Query: queryop.Query{
			Text:       opts.text,
			Start:      opts.start,
			PageSize:   pageSize,
			SortFields: opts.sort,
			Distinct:   opts.distinct,
		},
		Fields: queryop.FieldsToFetch(fields),
	})
	if err != nil {
		return fmt.Errorf("querying %q: %w", name, err)
	}

	out := output.New(cmd.OutOrStdout())
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	for _, doc := range result.Documents {
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	}
	out.Statusf("", "%d of %d total hit(s), %d skipped", len(result.Documents), result.TotalHits, result.Skipped)
	return nil
}
