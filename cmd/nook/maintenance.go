package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/nook"
	"github.com/aretw0/nook/pkg/adapters/fs"
	nooklifecycle "github.com/aretw0/nook/pkg/adapters/lifecycle"
	"github.com/aretw0/nook/pkg/core"
)

var (
	reconcilePrune bool
	stateDiagram   bool
	watchOnly      []string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare the content tree with the index",
	Long: `Report content without a record, records without content and records whose
type disagrees with their content. With --prune the orphans are removed.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		v := openVault()
		defer v.Close()

		report, err := v.Store.Reconcile(context.Background(), reconcilePrune)
		if err != nil {
			fatal("Reconcile failed", err)
		}
		if report.Clean() {
			fmt.Println("Vault is consistent.")
			return
		}
		for _, id := range report.OrphanContent {
			fmt.Printf("orphan content\t%s\n", id)
		}
		for _, id := range report.OrphanMetadata {
			fmt.Printf("orphan record\t%s\n", id)
		}
		for _, id := range report.KindMismatch {
			fmt.Printf("kind mismatch\t%s\n", id)
		}
		if report.Pruned {
			fmt.Println("Orphans pruned.")
		}
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the runtime state of the store",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		v := openVault()
		defer v.Close()

		if err := v.Store.Warm(context.Background()); err != nil {
			fatal("Failed to load index", err)
		}

		if stateDiagram {
			config := introspection.DefaultDiagramConfig()
			config.SecondaryID = "vault"
			config.SecondaryLabel = "Vault Topology"
			fmt.Println(introspection.TreeDiagram(buildVaultTree(v), config))
			return
		}
		out := map[string]any{
			v.Store.ComponentType():   v.Store.State(),
			v.Content.ComponentType(): v.Content.State(),
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(out); err != nil {
			fatal("Failed to encode JSON", err)
		}
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print content changes as they happen",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		v := openVault()
		defer v.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := v.Store.Watch(ctx)
		if err != nil {
			fatal("Failed to watch vault", err)
		}

		var types []core.EventType
		for _, name := range watchOnly {
			t := core.EventType(strings.ToUpper(name))
			switch t {
			case core.EventCreate, core.EventModify, core.EventDelete:
				types = append(types, t)
			default:
				fatal("Invalid event type", fmt.Errorf("%q (want create, modify or delete)", name))
			}
		}

		src := nooklifecycle.NewSource(events, types...)
		if err := src.Start(ctx); err != nil {
			fatal("Failed to start watcher", err)
		}
		fmt.Fprintln(os.Stderr, "Watching", v.Path, "(Ctrl+C to stop)")
		for e := range src.Events() {
			fmt.Println(e)
		}
	},
}

// stateNode is the shape introspection renders as a tree diagram.
type stateNode struct {
	Name     string
	Status   string
	Metadata map[string]string
	Children []stateNode
}

// buildVaultTree maps component state onto diagram nodes. Status values
// must be classes known to introspection.DefaultStyles.
func buildVaultTree(v *nook.Vault) stateNode {
	store, _ := v.Store.State().(core.StoreState)
	content, _ := v.Content.State().(fs.ContentState)

	watcherStatus := "suspended"
	if content.WatcherActive {
		watcherStatus = "running"
	}

	return stateNode{
		Name:   "Vault",
		Status: "running",
		Metadata: map[string]string{
			"type": "container",
			"path": v.Path,
		},
		Children: []stateNode{
			{
				Name:   "Store",
				Status: "running",
				Metadata: map[string]string{
					"type":      "process",
					"read_only": strconv.FormatBool(store.ReadOnly),
				},
				Children: []stateNode{
					{
						Name:   "Index",
						Status: "running",
						Metadata: map[string]string{
							"type": store.IndexType,
						},
					},
					{
						Name:   "Cache",
						Status: "running",
						Metadata: map[string]string{
							"type":     "container",
							"entries":  strconv.Itoa(store.CacheSize),
							"complete": strconv.FormatBool(store.CacheComplete),
						},
					},
				},
			},
			{
				Name:   "Content",
				Status: "running",
				Metadata: map[string]string{
					"type":    store.ContentType,
					"root":    content.Root,
					"backend": content.Backend,
				},
				Children: []stateNode{
					{
						Name:   "Watcher",
						Status: watcherStatus,
						Metadata: map[string]string{
							"type": "goroutine",
						},
					},
				},
			},
		},
	}
}

func init() {
	stateCmd.Flags().BoolVar(&stateDiagram, "diagram", false, "Print a Mermaid diagram of the vault components")
	reconcileCmd.Flags().BoolVar(&reconcilePrune, "prune", false, "Remove orphan content and records")
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(stateCmd)
	watchCmd.Flags().StringSliceVar(&watchOnly, "only", nil, "Only print these event types (create, modify, delete)")
	rootCmd.AddCommand(watchCmd)
}
