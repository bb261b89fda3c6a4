package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/nook"
	"github.com/aretw0/nook/pkg/core"
	"github.com/aretw0/nook/pkg/transfer"
)

var (
	parentRef   string
	entryIcon   string
	entryDesc   string
	entryType   string
	entryName   string
	newContent  string
	rmRecursive bool
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir [name...]",
	Short: "Create directories",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		v := openVault()
		defer v.Close()
		createEntries(v, args, core.TypeDirectory)
	},
}

var newCmd = &cobra.Command{
	Use:   "new [name...]",
	Short: "Create empty leaf entries",
	Long:  `Create empty leaf entries. The type defaults to note; use --type image, video or audio for media.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		t, err := core.ParseEntryType(entryType)
		if err != nil {
			fatal("Invalid type", err)
		}
		if t.IsContainer() {
			fatal("Invalid type", fmt.Errorf("use mkdir to create directories"))
		}

		v := openVault()
		defer v.Close()
		created := createEntries(v, args, t)
		if newContent == "" {
			return
		}
		for _, e := range created {
			if _, err := v.Store.WriteContent(context.Background(), e.ID, []byte(newContent)); err != nil {
				fatal("Failed to write content", err)
			}
		}
	},
}

var addCmd = &cobra.Command{
	Use:   "add [file...]",
	Short: "Import local files as entries",
	Long:  `Import local files. The entry type is detected from the file content.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v := openVault()
		defer v.Close()

		parent := mustResolve(ctx, v.Store, parentRef)
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				fatal("Failed to read file", err)
			}
			t, err := transfer.DetectType(data)
			if err != nil {
				fatal("Unsupported file "+path, err)
			}

			created, err := v.Store.CreateEntries(ctx, parent.ID, []core.EntrySpec{{
				Name:        filepath.Base(path),
				Type:        t,
				Icon:        entryIcon,
				Description: entryDesc,
			}})
			if err != nil {
				fatal("Failed to create entry", err)
			}
			e, err := v.Store.WriteContent(ctx, created[0].ID, data)
			if err != nil {
				fatal("Failed to write content", err)
			}
			if err := v.Prefs.Touch(e); err != nil {
				fatal("Failed to update preferences", err)
			}
			fmt.Printf("%s\t%s\t%s\n", e.ID, e.Type, e.Name)
		}
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm [ref...]",
	Short: "Remove entries",
	Long:  `Remove entries and their content. Directories are removed with all their descendants and require --recursive.`,
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v := openVault()
		defer v.Close()

		ids := make([]string, 0, len(args))
		for _, ref := range args {
			e := mustResolve(ctx, v.Store, ref)
			if e.IsDir() && !rmRecursive {
				fatal("Refusing to remove "+ref, fmt.Errorf("%s is a directory (use --recursive)", e.Name))
			}
			ids = append(ids, e.ID)
		}

		if err := v.Store.RemoveEntries(ctx, ids); err != nil {
			fatal("Failed to remove entries", err)
		}
		if err := v.Prefs.Forget(ids...); err != nil {
			fatal("Failed to update preferences", err)
		}
		fmt.Printf("Removed %d entries.\n", len(ids))
	},
}

var updateCmd = &cobra.Command{
	Use:   "update [ref]",
	Short: "Rename an entry or change its icon or description",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v := openVault()
		defer v.Close()

		e := mustResolve(ctx, v.Store, args[0])
		updated, err := v.Store.UpdateEntry(ctx, e.ID, core.EntryPatch{
			Name:        entryName,
			Icon:        entryIcon,
			Description: entryDesc,
		})
		if err != nil {
			fatal("Failed to update entry", err)
		}
		fmt.Printf("%s\t%s\t%s\n", updated.ID, updated.Type, updated.Name)
	},
}

// createEntries creates one entry per name below --parent and prints them.
func createEntries(v *nook.Vault, names []string, t core.EntryType) []core.Entry {
	ctx := context.Background()

	parent := mustResolve(ctx, v.Store, parentRef)
	specs := make([]core.EntrySpec, len(names))
	for i, name := range names {
		specs[i] = core.EntrySpec{Name: name, Type: t, Icon: entryIcon, Description: entryDesc}
	}

	created, err := v.Store.CreateEntries(ctx, parent.ID, specs)
	if err != nil {
		fatal("Failed to create entries", err)
	}
	for _, e := range created {
		fmt.Printf("%s\t%s\t%s\n", e.ID, e.Type, e.Name)
	}
	return created
}

func init() {
	for _, c := range []*cobra.Command{mkdirCmd, newCmd, addCmd} {
		c.Flags().StringVarP(&parentRef, "parent", "p", "root", "Parent directory (ID, name or name path)")
		c.Flags().StringVar(&entryIcon, "icon", "", "Entry icon")
		c.Flags().StringVar(&entryDesc, "description", "", "Entry description")
		rootCmd.AddCommand(c)
	}
	newCmd.Flags().StringVarP(&entryType, "type", "t", "note", "Entry type (note, image, video, audio)")
	newCmd.Flags().StringVar(&newContent, "content", "", "Initial content")

	rmCmd.Flags().BoolVarP(&rmRecursive, "recursive", "r", false, "Allow removing directories")
	rootCmd.AddCommand(rmCmd)

	updateCmd.Flags().StringVar(&entryName, "name", "", "New name")
	updateCmd.Flags().StringVar(&entryIcon, "icon", "", "New icon")
	updateCmd.Flags().StringVar(&entryDesc, "description", "", "New description")
	rootCmd.AddCommand(updateCmd)
}
