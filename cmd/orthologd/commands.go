package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"orthocore/internal/blob"
	"orthocore/internal/config"
	"orthocore/internal/orthology"
	"orthocore/internal/reference"
	"orthocore/internal/taxonomy"
)

type rootOptions struct {
	configPath string
	cfg        config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "orthologd",
		Short:         "Serve and inspect PaxDb ortholog levels",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			logger, err := cfg.NewLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			opts.cfg, opts.logger = cfg, logger
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(
		newServeCmd(opts),
		newCheckReferenceCmd(opts),
		newLevelsCmd(opts),
		newDescendantsCmd(opts),
		newTreeCmd(opts),
		newLowestLevelCmd(opts),
	)
	return root
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			return serve(cmd.Context(), cfg, opts.logger, nil)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides http.addr")
	return cmd
}

func newCheckReferenceCmd(opts *rootOptions) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check-reference",
		Short: "Load the reference files and report what was parsed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			tables, index, err := loadIndex(ctx, opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			src, err := blob.Open(ctx, opts.cfg.BlobOpenConfig())
			if err != nil {
				return err
			}
			inv, err := reference.Stat(ctx, src, opts.cfg.Reference)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, info := range inv.Tables {
				fmt.Fprintf(out, "%s: %d bytes\n", info.Key, info.Size)
			}
			if len(inv.Unreferenced) > 0 {
				fmt.Fprintf(out, "unreferenced objects: %s\n", strings.Join(inv.Unreferenced, ", "))
			}
			tree := index.Tree()
			rejected := tree.Rejected()
			fmt.Fprintf(out, "nodes: %d\n", tree.Len())
			fmt.Fprintf(out, "roots: %s\n", strings.Join(tree.Roots(), ", "))
			fmt.Fprintf(out, "orthologous groups: %d\n", len(tables.Orthgroups))
			fmt.Fprintf(out, "species with tissues: %d\n", len(tables.SpeciesTissues))
			fmt.Fprintf(out, "tissues: %d\n", len(tables.Tissues))
			fmt.Fprintf(out, "rejected edges: %d\n", len(rejected))
			for _, rej := range rejected {
				fmt.Fprintf(out, "  %v\n", rej)
			}
			if strict && len(rejected) > 0 {
				return fmt.Errorf("%d taxonomy edges rejected", len(rejected))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when any taxonomy edge is rejected")
	return cmd
}

func newLevelsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "levels <species-id>",
		Short: "List the orthologous group levels above a species, nearest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, index, err := loadIndex(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			levels, err := index.AncestorLevels(args[0])
			if err != nil {
				return err
			}
			return printLevels(cmd.OutOrStdout(), levels)
		},
	}
}

func printLevels(w io.Writer, levels []taxonomy.Level) error {
	for _, l := range levels {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", l.ID, l.Name); err != nil {
			return err
		}
	}
	return nil
}

func newDescendantsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "descendants <level>",
		Short: "List the species below an orthologous group level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, index, err := loadIndex(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			id, ok := index.ResolveLevel(args[0])
			if !ok {
				return taxonomy.UnknownOrthogroupError{ID: args[0]}
			}
			species, err := index.DescendantSpecies(id)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(species, "\n"))
			return err
		},
	}
}

func newTreeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <level> <protein-id>...",
		Short: "Print the taxonomy projected onto a set of proteins as JSON",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, index, err := loadIndex(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			tree, err := index.FamilyTree(args[1:], args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if tree == nil {
				return enc.Encode(map[string]any{})
			}
			return enc.Encode(tree)
		},
	}
}

func newLowestLevelCmd(opts *rootOptions) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "lowest-level <protein-id> <tissue>",
		Short: "Resolve the lowest level at which a protein has orthologs in a tissue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			speciesID, err := orthology.ParseProteinID(args[0])
			if err != nil {
				return err
			}
			engine, closeStore, err := openEngine(ctx, opts.cfg, opts.logger)
			if err != nil {
				return err
			}
			defer closeStore()
			res, err := engine.Resolve(ctx, args[0], speciesID, strings.ToUpper(args[1]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if verbose {
				_, err = fmt.Fprintf(out, "%s\t%s\t%d queries\n", res.Name(), res.State, res.Queries)
				return err
			}
			_, err = fmt.Fprintln(out, res.Name())
			return err
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "include the walk state and query count")
	return cmd
}
