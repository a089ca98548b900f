package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"nodegraph/internal/domain"
	"nodegraph/internal/graph"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file]",
		Short: "Print the flow charts and nodes of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.open(args[0], false)
			if err != nil {
				return err
			}
			defer closeFn()

			printStore(cmd, args[0], svc.Store())
			return nil
		},
	}
}

func printStore(cmd *cobra.Command, title string, s *graph.Store) {
	out := cmd.OutOrStdout()
	c := s.Counts()

	fmt.Fprintln(out, titleStyle.Render(title))
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf(
		"flowcharts %d  nodes %d  flow ports %d  property ports %d  connectors %d",
		c.FlowCharts, c.Nodes, c.FlowPorts, c.PropertyPorts, c.Connectors)))

	for _, fc := range s.FlowCharts() {
		fmt.Fprintf(out, "\n%s %s  type=%s  scale=%g  connectors=%d\n",
			titleStyle.Render("FlowChart"), fc.ID, fc.Type, fc.View.Scale, len(fc.Connectors))
		if len(fc.Nodes) == 0 {
			continue
		}

		rows := make([][]string, 0, len(fc.Nodes))
		for _, id := range fc.Nodes {
			n, ok := s.FindNode(id)
			if !ok {
				continue
			}
			rows = append(rows, nodeRow(n))
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Header", "Type", "Position", "Z", "Inputs", "Outputs", "Selected"}, rows))
	}
}

func nodeRow(n *domain.Node) []string {
	inputs := len(n.InputFlowPorts) + len(n.InputPropertyPorts)
	outputs := len(n.OutputFlowPorts) + len(n.OutputPropertyPorts)
	selected := ""
	if n.IsSelected {
		selected = "*"
	}
	return []string{
		n.Header,
		n.Type,
		fmt.Sprintf("%g,%g", n.X, n.Y),
		strconv.Itoa(n.ZIndex),
		strconv.Itoa(inputs),
		strconv.Itoa(outputs),
		selected,
	}
}

func newConvertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "convert [input] [output]",
		Short: "Re-encode a document; formats follow the file extensions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.open(args[0], false)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Serialize(args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[1])
			return nil
		},
	}
}
