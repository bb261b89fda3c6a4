package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/aretw0/nook"
	"github.com/aretw0/nook/internal/platform"
	"github.com/aretw0/nook/pkg/core"
)

var (
	verbose   bool
	vaultPath string
	adapter   string
	readOnly  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nook",
	Short: "A personal file and note manager",
	Long: `Nook keeps notes, images, videos and audio in a vault: a content tree
addressed by stable IDs, with names and metadata held in a SQLite index.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&vaultPath, "vault", "", "Vault directory (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "Metadata index adapter (sqlite, memory)")
	rootCmd.PersistentFlags().BoolVar(&readOnly, "read-only", false, "Open the vault read-only")
}

// openVault opens the vault named by --vault, or the one enclosing the
// working directory.
func openVault() *nook.Vault {
	root := vaultPath
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			fatal("Failed to get CWD", err)
		}
		root, err = nook.FindVaultRoot(wd)
		if err != nil {
			fatal("Not a nook vault", err)
		}
	}

	if !verbose {
		cfg, _, err := platform.LoadConfig(afero.NewOsFs(), filepath.Join(root, platform.DefaultSystemDir, platform.ConfigFileName))
		if err != nil {
			fatal("Failed to read config", err)
		}
		level, err := platform.ParseLogLevel(cfg.LogLevel)
		if err != nil {
			fatal("Failed to read config", err)
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}

	opts := []nook.Option{
		nook.WithMustExist(true),
		nook.WithLogger(slog.Default()),
		nook.WithAdapter(adapter),
	}
	if readOnly {
		opts = append(opts, nook.WithReadOnly(true))
	}

	v, err := nook.Open(root, opts...)
	if err != nil {
		fatal("Failed to open vault", err)
	}
	return v
}

// resolveRef turns a command line reference into an entry. A reference is
// an entry ID, "root", a unique entry name, or a slash separated name path
// from the root such as "Notes/todo.txt".
func resolveRef(ctx context.Context, store *core.Store, ref string) (core.Entry, error) {
	if core.IsRoot(ref) || ref == "/" {
		return core.Entry{ID: core.RootID, Name: core.RootID, Type: core.TypeDirectory}, nil
	}

	if strings.Contains(ref, "/") {
		names := strings.Split(strings.Trim(ref, "/"), "/")
		resolved, err := store.Paths().ResolveNamePath(ctx, names)
		if err != nil {
			return core.Entry{}, err
		}
		if len(resolved) != len(names) {
			return core.Entry{}, fmt.Errorf("%w: %s (resolved up to %d of %d segments)", core.ErrEntryNotFound, ref, len(resolved), len(names))
		}
		return resolved[len(resolved)-1], nil
	}

	if e, ok, err := store.GetEntry(ctx, ref); err != nil {
		return core.Entry{}, err
	} else if ok {
		return e, nil
	}

	byName, err := store.GetEntriesByName(ctx, []string{ref})
	if err != nil {
		return core.Entry{}, err
	}
	if e, ok := byName[0].Get(); ok {
		return e, nil
	}
	return core.Entry{}, fmt.Errorf("%w: %s", core.ErrEntryNotFound, ref)
}

func mustResolve(ctx context.Context, store *core.Store, ref string) core.Entry {
	e, err := resolveRef(ctx, store, ref)
	if err != nil {
		fatal("Failed to resolve entry", err)
	}
	return e
}
