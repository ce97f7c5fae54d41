package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docidx/docidx/internal/document"
	"github.com/docidx/docidx/internal/indexcore"
	"github.com/docidx/docidx/internal/output"
	"github.com/docidx/docidx/internal/viewgen"
	"github.com/docidx/docidx/internal/workctx"
)

type reduceOptions struct {
	file       string
	idField    string
	groupField string
	view       string
}

func newReduceCmd() *cobra.Command {
	var opts reduceOptions

	cmd := &cobra.Command{
		Use:   "reduce <name>",
		Short: "Run the reduce phase of a map-reduce index over a pre-grouped record stream",
		Long: `Read newline-delimited JSON records already grouped by reduce
key — consecutive records sharing the same --group-field value form one
group — and merge each group through a View Generator's reduce function.
Grouping the map phase's output by key is an external planner's job;
this command only drives the merge once the groups are in hand.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReduce(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Path to a newline-delimited JSON file (default: stdin)")
	cmd.Flags().StringVar(&opts.idField, "id-field", "id", "JSON field supplying each record's document key")
	cmd.Flags().StringVar(&opts.groupField, "group-field", "word", "Field whose value marks a run of consecutive records as one reduce group")
	cmd.Flags().StringVar(&opts.view, "view", "count", `View Generator supplying the reduce function. "count" merges records sharing the same "word" value into one record carrying their summed "count"`)

	return cmd
}

func runReduce(cmd *cobra.Command, name string, opts reduceOptions) error {
	in := cmd.InOrStdin()
	if opts.file != "" {
		f, err := os.Open(opts.file)
		if err != nil {
			return fmt.Errorf("opening %s: %w", opts.file, err)
		}
		defer f.Close()
		in = f
	}

	records, err := readDocuments(in, opts.idField)
	if err != nil {
		return err
	}

	view, err := resolveReduceView(opts.view)
	if err != nil {
		return err
	}
	reduceFn, ok := view.ReduceFunction()
	if !ok {
		return fmt.Errorf("view %q has no reduce function", opts.view)
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
	if !idx.Definition().IsMapReduce {
		return fmt.Errorf("index %q is not a map-reduce index; create it with --map-reduce", name)
	}

	cfg, err := loadIndexingConfig()
	if err != nil {
		return err
	}
	wc := workctx.New(cfg)

	groups := groupByField(records, opts.groupField)
	if err := idx.ReduceDocuments(indexcore.ReduceTransform(reduceFn), groups, wc, e.Actions()); err != nil {
		return fmt.Errorf("reducing %q: %w", name, err)
	}

	out := output.New(cmd.OutOrStdout())
	out.Success(fmt.Sprintf("reduced %d group(s) into %q", len(groups), name))
	for _, rec := range wc.Errors() {
		out.Warningf("%s: %s", rec.DocumentKey, rec.Message)
	}
	return nil
}

// resolveReduceView maps a --view flag value to the View whose reduce
// function runReduce drives.
func resolveReduceView(view string) (viewgen.View, error) {
	switch view {
	case "count":
		return viewgen.NewCountView(), nil
	default:
		return nil, fmt.Errorf("unknown --view %q (expected \"count\")", view)
	}
}

// groupByField splits records into runs of consecutive documents sharing
// the same value of field, preserving input order. A record missing
// field starts (and stays alone in) its own group.
func groupByField(records []*document.Document, field string) [][]*document.Document {
	var groups [][]*document.Document
	var cur []*document.Document
	var curValue string
	var curHas bool

	for _, rec := range records {
		val := fieldValue(rec, field)
		has := len(rec.FieldsNamed(field)) > 0
		if len(cur) > 0 && has && curHas && val == curValue {
			cur = append(cur, rec)
			continue
		}
		if len(cur) > 0 {
			groups = append(groups, cur)
		}
		cur = []*document.Document{rec}
		curValue = val
		curHas = has
	}
	if len(cur) > 0 {
		groups = append(groups, cur)
	}
	return groups
}

// fieldValue returns rec's first field named name rendered as text,
// regardless of which Kind carries its value, or "" if rec has no such
// field.
func fieldValue(rec *document.Document, name string) string {
	for _, f := range rec.Fields {
		if f.Name != name {
			continue
		}
		switch f.Kind {
		case document.ValueKindInt:
			return fmt.Sprintf("%d", f.Int)
		case document.ValueKindLong:
			return fmt.Sprintf("%d", f.Long)
		case document.ValueKindDouble:
			return fmt.Sprintf("%g", f.Double)
		default:
			return f.Text
		}
	}
	return ""
}
