// Package nook is the Composition Root for nook, a personal file and note
// manager core.
//
// It connects the core entry logic (pkg/core) with the infrastructure
// adapters (SQLite or in-memory metadata index, afero-backed content tree)
// using the Hexagonal Architecture pattern.
//
// A vault is a directory holding a hidden system dir (".nook") with the
// index, config and preferences, next to the content tree. Every entry is
// a directory or a typed leaf (note, image, video, audio) identified by an
// immutable ID; names are display labels and need not be unique.
//
// Features:
//
//   - **Batched lookups**: GetEntries and GetEntriesByName answer many keys per call.
//   - **Write-through cache**: metadata and content handles are cached and kept coherent.
//   - **Path resolution**: ID paths and name paths resolve to their longest valid prefix.
//   - **Tree transfer**: subtrees export to a nested JSON document and import back.
//   - **Backups**: compressed, checksummed archives on local disk or WebDAV.
//
// Usage:
//
//	vault, err := nook.Init("./vault", nook.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer vault.Close()
//
//	created, err := vault.Store.CreateEntries(ctx, nook.RootID, []nook.EntrySpec{
//		{Name: "todo.txt", Type: core.TypeNote},
//	})
package nook
