package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/weftlab/weft/internal/constraint"
	"github.com/weftlab/weft/internal/graph"
)

// InspectReport summarizes a document without validating it.
type InspectReport struct {
	DocumentID string           `json:"document_id"`
	NodeCounts map[string]int   `json:"node_counts"`
	Tensors    []TensorInfo     `json:"tensors,omitempty"`
	Operations []OperationInfo  `json:"operations,omitempty"`
}

// TensorInfo is one tensor row of an inspect report.
type TensorInfo struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	DType string `json:"dtype"`
	Range string `json:"range"`
	Size  int64  `json:"size"`
}

// OperationInfo is one operation row of an inspect report.
type OperationInfo struct {
	ID         string `json:"id"`
	Label      string `json:"label,omitempty"`
	Kernel     string `json:"kernel"`
	ShardCount int    `json:"shard_count"`
	IndexRange string `json:"index_range,omitempty"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <document>",
		Short: "Summarize a graph document",
		Long: `Print a summary of a graph document: node counts by kind, tensor
shapes, and the operation list with shard counts. No constraints are run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, args[0], cmd)
		},
	}
}

func runInspect(opts *RootOptions, docPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := LoadDocument(docPath)
	if err != nil {
		return outputCommandError(formatter, err)
	}

	env := constraint.DefaultEnvironment()
	g, err := env.DecodeDocument(data)
	if err != nil {
		_ = formatter.Error(ErrCodeDecode, err.Error(), nil)
		return WrapExitError(ExitCommandError, "decoding document", err)
	}

	docID, err := graph.DocumentHash(data)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "hashing document", err)
	}

	report := buildInspectReport(g, docID)
	if formatter.Format == "json" {
		return formatter.Success(report)
	}
	return writeInspectText(formatter, report)
}

func buildInspectReport(g *graph.Graph, docID string) InspectReport {
	report := InspectReport{
		DocumentID: docID,
		NodeCounts: make(map[string]int),
	}
	for _, n := range g.Nodes() {
		report.NodeCounts[n.Kind]++
	}

	for _, n := range g.NodesOfKind(graph.KindTensor) {
		body := n.TensorBody()
		report.Tensors = append(report.Tensors, TensorInfo{
			ID:    n.ID.String(),
			Label: n.Label,
			DType: body.DType,
			Range: body.Range.String(),
			Size:  body.Size(),
		})
	}

	for _, n := range g.NodesOfKind(graph.KindOperation) {
		body := n.OperationBody()
		info := OperationInfo{
			ID:         n.ID.String(),
			Label:      n.Label,
			Kernel:     body.Kernel,
			ShardCount: len(g.ApplicationsOf(n.ID)),
		}
		if body.IndexRange != nil {
			info.IndexRange = body.IndexRange.String()
		}
		report.Operations = append(report.Operations, info)
	}
	return report
}

func writeInspectText(formatter *OutputFormatter, report InspectReport) error {
	w := formatter.Writer

	fmt.Fprintf(w, "Document %s\n\n", report.DocumentID)

	fmt.Fprintln(w, "Nodes:")
	for _, kind := range []string{graph.KindTensor, graph.KindOperation, graph.KindApplication, graph.KindNote} {
		if count := report.NodeCounts[kind]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", kind, count)
		}
	}

	if len(report.Tensors) > 0 {
		fmt.Fprintln(w, "\nTensors:")
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  LABEL\tDTYPE\tRANGE\tSIZE")
		for _, tensor := range report.Tensors {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\n", tensor.Label, tensor.DType, tensor.Range, tensor.Size)
		}
		tw.Flush()
	}

	if len(report.Operations) > 0 {
		fmt.Fprintln(w, "\nOperations:")
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  LABEL\tKERNEL\tSHARDS\tINDEX RANGE")
		for _, op := range report.Operations {
			fmt.Fprintf(tw, "  %s\t%s\t%d\t%s\n", op.Label, op.Kernel, op.ShardCount, op.IndexRange)
		}
		tw.Flush()
	}
	return nil
}
