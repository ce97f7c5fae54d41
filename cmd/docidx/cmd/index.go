package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/docidx/docidx/internal/document"
	"github.com/docidx/docidx/internal/indexcore"
	"github.com/docidx/docidx/internal/output"
	"github.com/docidx/docidx/internal/viewgen"
	"github.com/docidx/docidx/internal/workctx"
)

type indexOptions struct {
	file         string
	minTimestamp string
	idField      string
	view         string
}

func newIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index <name>",
		Short: "Feed newline-delimited JSON records into an index",
		Long: `Read newline-delimited JSON objects from --file (or stdin) and
index one document per line. Each object's field becomes a document
field of the matching JSON type; the value under --id-field (default
"id") becomes the document's key.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Path to a newline-delimited JSON file (default: stdin)")
	cmd.Flags().StringVar(&opts.minTimestamp, "min-timestamp", "", "Skip records whose \"updated_at\" field is older than this RFC3339 timestamp")
	cmd.Flags().StringVar(&opts.idField, "id-field", "id", "JSON field supplying each record's document key")
	cmd.Flags().StringVar(&opts.view, "view", "", `View Generator to run each record through before indexing. "code" splits a record's "content" field (with "file_path"/"language") into one index record per function, method, type, const, or var via the tree-sitter chunker; "graph" decodes a record's "json" field (resolving "$id"/"$ref" back-references) into one index record per leaf path; "count" is the map phase of a map-reduce word count, splitting a record's "text" field into one (word, count=1) record per word, later merged by "docidx reduce --view count"; the default indexes each record as-is`)

	return cmd
}

func runIndex(cmd *cobra.Command, name string, opts indexOptions) error {
	in := cmd.InOrStdin()
	if opts.file != "" {
		f, err := os.Open(opts.file)
		if err != nil {
			return fmt.Errorf("opening %s: %w", opts.file, err)
		}
		defer f.Close()
		in = f
	}

	var minTimestamp time.Time
	if opts.minTimestamp != "" {
		t, err := time.Parse(time.RFC3339, opts.minTimestamp)
		if err != nil {
			return fmt.Errorf("parsing --min-timestamp: %w", err)
		}
		minTimestamp = t
	}

	docs, err := readDocuments(in, opts.idField)
	if err != nil {
		return err
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	idx, err := e.Get(name)
	if err != nil {
		return fmt.Errorf("opening index %q: %w", name, err)
	}

	cfg, err := loadIndexingConfig()
	if err != nil {
		return err
	}
	wc := workctx.New(cfg)

	transform, closeView, err := resolveViewTransform(opts.view)
	if err != nil {
		return err
	}
	defer closeView()

	if err := idx.IndexDocuments(transform, docs, wc, e.Actions(), minTimestamp); err != nil {
		return fmt.Errorf("indexing %q: %w", name, err)
	}

	out := output.New(cmd.OutOrStdout())
	out.Success(fmt.Sprintf("indexed %d document(s) into %q", len(docs), name))
	for _, rec := range wc.Errors() {
		out.Warningf("%s: %s", rec.DocumentKey, rec.Message)
	}
	return nil
}

// resolveViewTransform maps a --view flag value to the SourceTransform
// IndexDocuments should run each record through, plus a close func
// releasing any resources the transform holds (a no-op for the identity
// transform). An empty view name indexes each record as-is.
func resolveViewTransform(view string) (indexcore.SourceTransform, func(), error) {
	switch view {
	case "":
		identity := func(src *document.Document) ([]*document.Document, error) {
			return []*document.Document{src}, nil
		}
		return identity, func() {}, nil
	case "code":
		fn, closeFn := viewgen.NewCodeTransform()
		return indexcore.SourceTransform(fn), closeFn, nil
	case "graph":
		view := viewgen.NewGraphView()
		return indexcore.SourceTransform(view.IndexingFunctions()[0]), func() {}, nil
	case "count":
		view := viewgen.NewCountView()
		return indexcore.SourceTransform(view.IndexingFunctions()[0]), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown --view %q (expected \"\", \"code\", \"graph\", or \"count\")", view)
	}
}

// readDocuments parses one JSON object per line into a Document, using
// idField's value (stringified) as the document key.
func readDocuments(r io.Reader, idField string) ([]*document.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var docs []*document.Document
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, fmt.Errorf("parsing JSON record: %w", err)
		}
		docs = append(docs, jsonToDocument(raw, idField))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return docs, nil
}

// jsonToDocument converts one decoded JSON object into a Document: the
// idField value becomes the key, every other key becomes a field typed
// by its JSON value, and a JSON array becomes one field per element
// under the same name so the write path's array grouping applies.
func jsonToDocument(raw map[string]any, idField string) *document.Document {
	key := fmt.Sprintf("%v", raw[idField])
	doc := document.New(key)
	for name, val := range raw {
		if name == idField {
			continue
		}
		addJSONField(doc, name, val)
	}
	return doc
}

func addJSONField(doc *document.Document, name string, val any) {
	switch v := val.(type) {
	case nil:
		doc.AddField(document.NewKeywordField(name, document.NullValueSentinel))
	case string:
		if v == "" {
			doc.AddField(document.NewKeywordField(name, document.EmptyStringSentinel))
			return
		}
		doc.AddField(document.NewTextField(name, v))
	case float64:
		doc.AddField(document.NewDoubleField(name, v))
	case bool:
		doc.AddField(document.NewKeywordField(name, fmt.Sprintf("%t", v)))
	case []any:
		for _, elem := range v {
			addJSONField(doc, name, elem)
		}
		doc.AddField(document.NewSidecarField(name, document.SuffixIsArray, "true"))
	default:
		b, _ := json.Marshal(v)
		doc.AddField(document.NewKeywordField(name, string(b)))
		doc.AddField(document.NewSidecarField(name, document.SuffixConvertToJSON, "true"))
	}
}
