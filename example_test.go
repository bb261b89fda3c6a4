package nook_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/nook"
	"github.com/aretw0/nook/pkg/core"
	"github.com/aretw0/nook/pkg/transfer"
)

// Example_basic demonstrates how to initialize a vault, write a note and read it back.
func Example_basic() {
	tmpDir, err := os.MkdirTemp("", "nook-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	vault, err := nook.Init(tmpDir)
	if err != nil {
		log.Fatal(err)
	}
	defer vault.Close()

	ctx := context.Background()

	dirs, err := vault.Store.CreateEntries(ctx, nook.RootID, []nook.EntrySpec{
		{Name: "Notes", Type: core.TypeDirectory},
	})
	if err != nil {
		log.Fatal(err)
	}

	notes, err := vault.Store.CreateEntries(ctx, dirs[0].ID, []nook.EntrySpec{
		{Name: "todo.txt", Type: core.TypeNote},
	})
	if err != nil {
		log.Fatal(err)
	}

	if _, err := vault.Store.WriteContent(ctx, notes[0].ID, []byte("buy milk")); err != nil {
		log.Fatal(err)
	}

	data, entry, err := vault.Store.ReadContent(ctx, notes[0].ID)
	if err != nil {
		log.Fatal(err)
	}

	names, err := vault.Store.Paths().NamesFromIDs(ctx, []string{dirs[0].ID, notes[0].ID})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s: %s\n", entry.Name, data)
	fmt.Println(names)
	// Output:
	// todo.txt: buy milk
	// [Notes todo.txt]
}

// ExampleOpen_export demonstrates exporting a subtree as a nested document.
func ExampleOpen_export() {
	tmpDir, err := os.MkdirTemp("", "nook-export-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	vault, err := nook.Open(tmpDir, nook.WithAutoInit(true), nook.WithAdapter("memory"))
	if err != nil {
		log.Fatal(err)
	}
	defer vault.Close()

	ctx := context.Background()

	dirs, err := vault.Store.CreateEntries(ctx, nook.RootID, []nook.EntrySpec{
		{Name: "Journal", Type: core.TypeDirectory},
	})
	if err != nil {
		log.Fatal(err)
	}
	if _, err := vault.Store.CreateEntries(ctx, dirs[0].ID, []nook.EntrySpec{
		{Name: "monday.md", Type: core.TypeNote},
		{Name: "tuesday.md", Type: core.TypeNote},
	}); err != nil {
		log.Fatal(err)
	}

	node, err := transfer.Export(ctx, vault.Store, dirs[0].ID)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s holds %d entries\n", node.Name, node.Count()-1)
	// Output:
	// Journal holds 2 entries
}
