package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/nook/pkg/backup"
	"github.com/aretw0/nook/pkg/core"
)

var (
	backupDest    string
	backupFormat  string
	backupName    string
	restoreParent string
)

var backupCmd = &cobra.Command{
	Use:   "backup [ref]",
	Short: "Write a checksummed archive of a directory",
	Long: `Export a directory (default: the root) into a compressed archive with a BLAKE3
checksum file next to it. --to selects the destination: a local directory
(default: .nook/backups) or a WebDAV collection given as an http(s) URL.`,
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

		m := newBackupManager(v.BackupTarget)
		name := backupName
		if name == "" {
			name = m.ArchiveName(backupFormat)
		}
		res, err := m.Backup(ctx, v.Store, dir.ID, name)
		if err != nil {
			fatal("Backup failed", err)
		}
		fmt.Printf("%s\t%d entries\t%d bytes\tblake3:%s\n", res.Name, res.Nodes, res.Bytes, res.Checksum)
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore [archive]",
	Short: "Restore an archive below a directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		v := openVault()
		defer v.Close()

		parent := mustResolve(ctx, v.Store, restoreParent)
		m := newBackupManager(v.BackupTarget)
		created, err := m.Restore(ctx, v.Store, args[0], parent.ID)
		if err != nil {
			fatal(fmt.Sprintf("Restore failed (%d entries created)", len(created)), err)
		}
		fmt.Printf("Restored %s (%d top-level entries).\n", args[0], len(created))
	},
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List archives at a backup destination",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		v := openVault()
		defer v.Close()

		names, err := newBackupManager(v.BackupTarget).List(context.Background())
		if err != nil {
			fatal("Failed to list backups", err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
	},
}

func newBackupManager(resolve func(string) (backup.Target, error)) *backup.Manager {
	target, err := resolve(backupDest)
	if err != nil {
		fatal("Invalid backup destination", err)
	}
	return backup.NewManager(target, backup.WithLogger(slog.Default()))
}

func init() {
	for _, c := range []*cobra.Command{backupCmd, restoreCmd, backupsCmd} {
		c.Flags().StringVar(&backupDest, "to", "", "Backup destination (directory or http(s) WebDAV URL)")
		rootCmd.AddCommand(c)
	}
	backupCmd.Flags().StringVar(&backupFormat, "format", backup.DefaultFormat, "Archive format (e.g. .json.zst, .cbor.lz4, .yaml)")
	backupCmd.Flags().StringVar(&backupName, "name", "", "Archive name (default: timestamped)")
	restoreCmd.Flags().StringVarP(&restoreParent, "parent", "p", "root", "Destination directory")
}
