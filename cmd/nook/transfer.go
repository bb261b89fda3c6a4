package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/nook/pkg/backup"
	"github.com/aretw0/nook/pkg/core"
	"github.com/aretw0/nook/pkg/transfer"
)

var (
	exportOut    string
	importParent string
)

var exportCmd = &cobra.Command{
	Use:   "export [ref]",
	Short: "Export a directory as a nested document",
	Long: `Export a directory (default: the root) with all its descendants and their content.
The document is written to standard output as JSON, or to --output, whose extension
selects the encoding (.json, .yaml, .cbor, optionally followed by .zst or .lz4).`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v := openVault()
		defer v.Close()

		ref := core.RootID
		if len(args) == 1 {
			ref = args[0]
		}
		dir := mustResolve(ctx, v.Store, ref)

		doc, err := transfer.Export(ctx, v.Store, dir.ID, transfer.WithLogger(v.Logger()))
		if err != nil {
			fatal("Failed to export", err)
		}

		name := exportOut
		if name == "" {
			name = "stdout.json"
		}
		codec, err := backup.CodecFor(name)
		if err != nil {
			fatal("Unsupported output", err)
		}
		data, err := codec.Marshal(doc)
		if err != nil {
			fatal("Failed to encode document", err)
		}

		if exportOut == "" {
			fmt.Println(string(data))
			return
		}
		if err := os.WriteFile(exportOut, data, 0644); err != nil {
			fatal("Failed to write document", err)
		}
		fmt.Fprintf(os.Stderr, "Exported %d entries to %s.\n", doc.Count(), exportOut)
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a nested document below a directory",
	Long:  `Import a document produced by export. Every entry receives a fresh ID. An exported root places its children directly below --parent.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		codec, err := backup.CodecFor(args[0])
		if err != nil {
			fatal("Unsupported input", err)
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			fatal("Failed to read document", err)
		}
		doc, err := codec.Unmarshal(data)
		if err != nil {
			fatal("Failed to decode document", err)
		}

		ctx := context.Background()
		v := openVault()
		defer v.Close()

		parent := mustResolve(ctx, v.Store, importParent)
		created, err := transfer.Import(ctx, v.Store, doc, parent.ID, transfer.WithLogger(v.Logger()))
		if err != nil {
			fatal(fmt.Sprintf("Failed to import (%d entries created)", len(created)), err)
		}
		total := doc.Count()
		if doc.IsRoot() {
			total--
		}
		fmt.Printf("Imported %d entries.\n", total)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Output file")
	rootCmd.AddCommand(exportCmd)

	importCmd.Flags().StringVarP(&importParent, "parent", "p", "root", "Destination directory")
	rootCmd.AddCommand(importCmd)
}
