package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/nook/pkg/core"
)

var (
	listJSON   bool
	recentKind string
)

var lsCmd = &cobra.Command{
	Use:   "ls [ref]",
	Short: "List a directory",
	Long:  `List the directories and files of a directory (default: the root), each group ordered by name.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v := openVault()
		defer v.Close()

		ref := core.RootID
		if len(args) == 1 {
			ref = args[0]
		}
		dir := mustResolve(ctx, v.Store, ref)

		listing, err := v.Store.ListDirectory(ctx, dir.ID)
		if err != nil {
			fatal("Failed to list directory", err)
		}

		if listJSON {
			out := struct {
				Directories []entryView `json:"directories"`
				Files       []entryView `json:"files"`
			}{
				Directories: views(listing.Directories),
				Files:       views(listing.Files),
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(out); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, e := range listing.Directories {
			fmt.Printf("%s\t%s/\n", e.ID, e.Name)
		}
		for _, e := range listing.Files {
			fmt.Printf("%s\t%s\t%s\n", e.ID, e.Name, e.Type)
		}
	},
}

var pathCmd = &cobra.Command{
	Use:   "path [ref]",
	Short: "Print the name path of an entry",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v := openVault()
		defer v.Close()

		e := mustResolve(ctx, v.Store, args[0])
		var ids []string
		for cur := e; !core.IsRoot(cur.ID); {
			ids = append(ids, cur.ID)
			if slices.Contains(ids, cur.Parent) {
				fatal("Failed to resolve path", fmt.Errorf("parent cycle at %s", cur.ID))
			}
			if core.IsRoot(cur.Parent) {
				break
			}
			parent, ok, err := v.Store.GetEntry(ctx, cur.Parent)
			if err != nil {
				fatal("Failed to resolve path", err)
			}
			if !ok {
				break
			}
			cur = parent
		}
		slices.Reverse(ids)

		names, err := v.Store.Paths().NamesFromIDs(ctx, ids)
		if err != nil {
			fatal("Failed to resolve path", err)
		}
		fmt.Println("/" + strings.Join(names, "/"))
	},
}

var findCmd = &cobra.Command{
	Use:   "find [pattern]",
	Short: "Find entries by name",
	Long:  `Find entries whose name matches a glob pattern such as "*.md" or "todo*".`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v := openVault()
		defer v.Close()

		matches, err := v.Store.Find(ctx, args[0])
		if err != nil {
			fatal("Failed to search", err)
		}
		printEntries(matches)
	},
}

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently used notes and files",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v := openVault()
		defer v.Close()

		p := v.Prefs.Get()
		var ids []string
		switch recentKind {
		case "notes":
			ids = p.RecentNotes
		case "files":
			ids = p.RecentFiles
		default:
			fatal("Invalid kind", fmt.Errorf("%q (want notes or files)", recentKind))
		}

		slots, err := v.Store.GetEntries(ctx, ids)
		if err != nil {
			fatal("Failed to resolve entries", err)
		}
		var entries []core.Entry
		for _, slot := range slots {
			if e, ok := slot.Get(); ok {
				entries = append(entries, e)
			}
		}
		printEntries(entries)
	},
}

func printEntries(entries []core.Entry) {
	if listJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(views(entries)); err != nil {
			fatal("Failed to encode JSON", err)
		}
		return
	}
	for _, e := range entries {
		fmt.Printf("%s\t%s\t%s\n", e.ID, e.Name, e.Type)
	}
}

func views(entries []core.Entry) []entryView {
	out := make([]entryView, len(entries))
	for i, e := range entries {
		out[i] = entryView{
			ID:          e.ID,
			Name:        e.Name,
			Type:        e.Type.String(),
			Icon:        e.Icon,
			Parent:      e.Parent,
			Description: e.Description,
			Created:     e.Created.UnixMilli(),
			Modified:    e.Modified.UnixMilli(),
		}
	}
	return out
}

func init() {
	for _, c := range []*cobra.Command{lsCmd, findCmd, recentCmd} {
		c.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
		rootCmd.AddCommand(c)
	}
	recentCmd.Flags().StringVar(&recentKind, "kind", "notes", "Which list to show (notes, files)")
	rootCmd.AddCommand(pathCmd)
}
