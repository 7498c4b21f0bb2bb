// Package main provides the VectorLiteDB CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cssvb94/vectorlitedb/pkg/config"
	"github.com/cssvb94/vectorlitedb/pkg/engine"
	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
	"github.com/cssvb94/vectorlitedb/pkg/router"
	"github.com/cssvb94/vectorlitedb/pkg/vllog"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vectorlitedb",
		Short: "VectorLiteDB - embedded vector knowledge store",
		Long: `VectorLiteDB is an embedded knowledge store combining HNSW
approximate nearest-neighbor search, metadata and hierarchical tag
filtering, and weighted bidirectional relation-graph traversal with
similarity decay.`,
	}

	rootCmd.PersistentFlags().String("data-dir", "", "base path for shard data files (empty: in-memory)")
	rootCmd.PersistentFlags().String("config", "", "path to a YAML shard-topology file")
	rootCmd.PersistentFlags().Int("shards", 1, "number of shards")
	rootCmd.PersistentFlags().Int("dimensions", 384, "embedding dimensionality")
	rootCmd.PersistentFlags().String("password", "", "at-rest encryption password (empty disables encryption)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vectorlitedb v%s (%s)\n", version, commit)
		},
	})

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a knowledge entry",
		RunE:  runAdd,
	}
	addCmd.Flags().String("id", "", "explicit entry id (empty: generated)")
	addCmd.Flags().String("content", "", "entry content")
	addCmd.Flags().String("embedding", "", "comma-separated embedding vector")
	addCmd.Flags().StringSlice("tag", nil, "tag (repeatable)")
	addCmd.Flags().StringToString("meta", nil, "metadata key=value pair (repeatable)")
	rootCmd.AddCommand(addCmd)

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search for knowledge entries by embedding similarity",
		RunE:  runSearch,
	}
	searchCmd.Flags().String("embedding", "", "comma-separated query vector (required)")
	searchCmd.Flags().Int("k", 10, "number of results")
	searchCmd.Flags().Int("traversal-depth", 0, "relation traversal depth")
	searchCmd.Flags().StringSlice("tag", nil, "required tag or tag prefix (repeatable)")
	searchCmd.Flags().Bool("exact", false, "force brute-force near-duplicate search")
	_ = searchCmd.MarkFlagRequired("embedding")
	rootCmd.AddCommand(searchCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Mark an entry for deletion",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}
	rootCmd.AddCommand(deleteCmd)

	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import entries from a JSON export file",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	rootCmd.AddCommand(importCmd)

	exportCmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export entries to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	rootCmd.AddCommand(exportCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print aggregate store statistics",
		RunE:  runStats,
	}
	rootCmd.AddCommand(statsCmd)

	rebuildCmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the HNSW index on every shard that needs it",
		RunE:  runRebuild,
	}
	rebuildCmd.Flags().Bool("force", false, "rebuild even if ShouldRebuild reports false")
	rootCmd.AddCommand(rebuildCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openRouter(cmd *cobra.Command) (*router.ShardRouter, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath != "" {
		cfg, err := config.LoadFile(cfgPath)
		if err != nil {
			return nil, err
		}
		return router.New(router.Options{
			ShardCount: cfg.ShardCount,
			BasePath:   cfg.BasePath,
			Password:   cfg.Password,
			Dimensions: cfg.Dimensions,
			ANNConfig:  cfg.HNSW,
		})
	}

	cfg := config.LoadFromEnv()
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.BasePath = v
	}
	if v, _ := cmd.Flags().GetInt("shards"); cmd.Flags().Changed("shards") {
		cfg.ShardCount = v
	}
	if v, _ := cmd.Flags().GetInt("dimensions"); cmd.Flags().Changed("dimensions") {
		cfg.Dimensions = v
	}
	if v, _ := cmd.Flags().GetString("password"); v != "" {
		cfg.Password = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	vllog.SetDebug(cfg.Debug)

	return router.New(router.Options{
		ShardCount: cfg.ShardCount,
		BasePath:   cfg.BasePath,
		Password:   cfg.Password,
		Dimensions: cfg.Dimensions,
		ANNConfig:  cfg.HNSW,
	})
}

func parseVector(s string) ([]float32, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	vec := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("parsing vector component %q: %w", p, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	r, err := openRouter(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	id, _ := cmd.Flags().GetString("id")
	content, _ := cmd.Flags().GetString("content")
	embeddingStr, _ := cmd.Flags().GetString("embedding")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	meta, _ := cmd.Flags().GetStringToString("meta")

	embedding, err := parseVector(embeddingStr)
	if err != nil {
		return err
	}

	metadata := knowledge.Metadata{}
	for k, v := range meta {
		metadata[k] = v
	}

	entry := &knowledge.KnowledgeEntry{
		ID:        knowledge.ID(id),
		Content:   content,
		Embedding: embedding,
		Tags:      tags,
		Metadata:  metadata,
	}
	if err := r.Add(entry); err != nil {
		return err
	}

	fmt.Printf("added entry %s\n", entry.ID)
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	r, err := openRouter(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	embeddingStr, _ := cmd.Flags().GetString("embedding")
	k, _ := cmd.Flags().GetInt("k")
	depth, _ := cmd.Flags().GetInt("traversal-depth")
	tags, _ := cmd.Flags().GetStringSlice("tag")
	exact, _ := cmd.Flags().GetBool("exact")

	query, err := parseVector(embeddingStr)
	if err != nil {
		return err
	}

	req := engine.DefaultRequest(query)
	req.K = k
	req.TraversalDepth = depth
	req.TagPrefixes = tags
	req.UseExact = exact

	results, err := r.Search(context.Background(), req)
	if err != nil {
		return err
	}

	for _, res := range results {
		fmt.Printf("%-36s  similarity=%.4f  depth=%d  %s\n",
			res.Entry.ID, res.Similarity, res.TraversalDepth, res.Entry.Content)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	r, err := openRouter(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.MarkForDeletion(knowledge.ID(args[0])); err != nil {
		return err
	}
	fmt.Printf("marked %s for deletion\n", args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	r, err := openRouter(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	// ShardRouter.ImportJSON loads every entry into shard 0 without
	// routing by id, so import is only offered for a single-shard setup;
	// export/import is a single-shard convenience.
	if r.ShardCount() != 1 {
		return fmt.Errorf("import requires --shards=1; got %d", r.ShardCount())
	}
	return r.ImportJSON(args[0])
}

func runExport(cmd *cobra.Command, args []string) error {
	r, err := openRouter(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	if r.ShardCount() != 1 {
		return fmt.Errorf("export requires --shards=1; got %d", r.ShardCount())
	}
	return r.ExportJSON(args[0])
}

func runStats(cmd *cobra.Command, args []string) error {
	r, err := openRouter(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	st, err := r.GetStats()
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runRebuild(cmd *cobra.Command, args []string) error {
	r, err := openRouter(cmd)
	if err != nil {
		return err
	}
	defer r.Close()

	force, _ := cmd.Flags().GetBool("force")
	n, err := r.RebuildIndexes(force)
	if err != nil {
		return err
	}
	fmt.Printf("rebuilt %d shard(s)\n", n)
	return nil
}
