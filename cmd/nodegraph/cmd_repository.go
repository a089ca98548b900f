package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save [file] [name]",
		Short: "Store a document file in the database",
		Long: `Store a document file in the database under name. The name defaults
to the file name without its extension. An existing document is replaced.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := documentName(args[0])
			if len(args) == 2 {
				name = args[1]
			}

			svc, closeFn, err := a.open(args[0], true)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.SaveToRepository(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", name)
			return nil
		},
	}
}

func documentName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load [name] [file]",
		Short: "Write a stored document to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.newService(true)
			if err != nil {
				return err
			}
			defer closeFn()

			ok, err := svc.LoadFromRepository(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no stored document named %q", args[0])
			}
			if err := svc.Serialize(args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[1])
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored documents, most recently updated first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.newService(true)
			if err != nil {
				return err
			}
			defer closeFn()

			docs, err := svc.ListDocuments(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("no stored documents"))
				return nil
			}

			rows := make([][]string, 0, len(docs))
			for _, d := range docs {
				rows = append(rows, []string{
					d.Name,
					strconv.Itoa(d.FlowCharts),
					strconv.Itoa(d.Nodes),
					strconv.Itoa(d.Connectors),
					humanize.Bytes(uint64(d.Size)),
					humanize.Time(d.UpdatedAt),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "FlowCharts", "Nodes", "Connectors", "Size", "Updated"}, rows))
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete [name]",
		Aliases: []string{"rm"},
		Short:   "Delete a stored document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.newService(true)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.DeleteDocument(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}
