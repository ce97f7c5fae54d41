package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/docidx/docidx/internal/engine"
	"github.com/docidx/docidx/internal/output"
)

type createOptions struct {
	fields          []string
	temp            bool
	mapReduce       bool
	defaultAnalyzer string
}

func newCreateCmd() *cobra.Command {
	var opts createOptions

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Declare a new index's field schema",
		Long: `Declare a new index and the fields it will accept.

Each --field value has the shape name:mode[:analyzer], where mode is
"analyzed", "not_analyzed", or "default":

  docidx create widgets --field title:analyzed --field category:not_analyzed:keyword`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.fields, "field", nil, "Field declaration name:mode[:analyzer] (repeatable)")
	cmd.Flags().BoolVar(&opts.temp, "temp", false, "Make this a RAM-resident temp index, promoted to disk once it grows")
	cmd.Flags().BoolVar(&opts.mapReduce, "map-reduce", false, "Mark this index as map-reduce backed")
	cmd.Flags().StringVar(&opts.defaultAnalyzer, "default-analyzer", "", "Default analyzer class for fields without one")

	return cmd
}

func runCreate(cmd *cobra.Command, name string, opts createOptions) error {
	fields, err := parseFieldSpecs(opts.fields)
	if err != nil {
		return err
	}

	e, err := openEngine()
	if err != nil {
		return err
	}
	defer e.Close()

	_, err = e.Create(engine.Schema{
		Name:            name,
		IsTemp:          opts.temp,
		IsMapReduce:     opts.mapReduce,
		DefaultAnalyzer: opts.defaultAnalyzer,
		Fields:          fields,
	})
	if err != nil {
		return fmt.Errorf("creating index %q: %w", name, err)
	}

	out := output.New(cmd.OutOrStdout())
	out.Success(fmt.Sprintf("created index %q with %d field(s)", name, len(fields)))
	return nil
}

func parseFieldSpecs(raw []string) ([]engine.FieldSpec, error) {
	specs := make([]engine.FieldSpec, 0, len(raw))
	for _, r := range raw {
		parts := strings.Split(r, ":")
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid --field %q: expected name:mode[:analyzer]", r)
		}
		spec := engine.FieldSpec{Name: parts[0], Mode: parts[1]}
		if len(parts) >= 3 {
			spec.Analyzer = parts[2]
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
