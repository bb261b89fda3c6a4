package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/nook/pkg/core"
)

var (
	writeContent string
	writeFile    string
	readJSON     bool
)

var writeCmd = &cobra.Command{
	Use:   "write [ref]",
	Short: "Replace the content of a leaf entry",
	Long:  `Replace the content of a leaf entry with --content, the file given by --file, or standard input.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var data []byte
		var err error
		switch {
		case cmd.Flags().Changed("content"):
			data = []byte(writeContent)
		case writeFile != "":
			data, err = os.ReadFile(writeFile)
		default:
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			fatal("Failed to read input", err)
		}

		ctx := context.Background()
		v := openVault()
		defer v.Close()

		e := mustResolve(ctx, v.Store, args[0])
		updated, err := v.Store.WriteContent(ctx, e.ID, data)
		if err != nil {
			fatal("Failed to write content", err)
		}
		if err := v.Prefs.Touch(updated); err != nil {
			fatal("Failed to update preferences", err)
		}
		fmt.Printf("Wrote %d bytes to %s.\n", len(data), updated.Name)
	},
}

// entryView is the JSON shape of an entry on the command line.
type entryView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Icon        string `json:"icon,omitempty"`
	Parent      string `json:"parent"`
	Description string `json:"description,omitempty"`
	Created     int64  `json:"created"`
	Modified    int64  `json:"modified"`
	Content     string `json:"content,omitempty"`
}

var readCmd = &cobra.Command{
	Use:   "read [ref]",
	Short: "Read a leaf entry",
	Long:  `Read a leaf entry. Outputs the raw content by default, or a JSON object with --json.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v := openVault()
		defer v.Close()

		e := mustResolve(ctx, v.Store, args[0])
		data, e, err := v.Store.ReadContent(ctx, e.ID)
		if err != nil {
			fatal("Failed to read content", err)
		}
		if !readOnly {
			if err := v.Prefs.Touch(e); err != nil {
				fatal("Failed to update preferences", err)
			}
		}

		if readJSON {
			view := views([]core.Entry{e})[0]
			if e.Type.IsText() {
				view.Content = string(data)
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(view); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		os.Stdout.Write(data)
	},
}

func init() {
	writeCmd.Flags().StringVar(&writeContent, "content", "", "New content")
	writeCmd.Flags().StringVarP(&writeFile, "file", "f", "", "Read the new content from a file")
	rootCmd.AddCommand(writeCmd)

	readCmd.Flags().BoolVar(&readJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(readCmd)
}
