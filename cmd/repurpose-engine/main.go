// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the repurpose-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/repurpose-engine/internal/secrets"
	"github.com/pdiddy/repurpose-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the repurpose-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "repurpose-engine",
	Short: "Drug repurposing evidence triage",
	Long: `repurpose-engine turns a drug candidate and a target condition into an
auditable evidence dossier and a GO/MAYBE/NO-GO repurposing decision.

The pipeline plans literature queries, retrieves and ranks abstracts,
extracts structured evidence with an LLM, applies quality and safety
gates, and scores the assembled dossier. Each subcommand exposes one
piece: triage runs the full batch, search previews retrieval for one
candidate, score re-evaluates a persisted dossier, and shortlist
queries past results.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./repurpose-engine.yaml or ~/.config/repurpose-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("repurpose-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "repurpose-engine"))
		}
	}

	viper.SetEnvPrefix("REPURPOSE_ENGINE")
	viper.AutomaticEnv()

	setDefaults(types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults seeds viper with every tunable so loadConfig can read
// unconditionally.
func setDefaults(cfg types.Config) {
	viper.SetDefault("retrieval.max_results", cfg.Retrieval.MaxResults)
	viper.SetDefault("retrieval.request_delay", cfg.Retrieval.RequestDelay)
	viper.SetDefault("retrieval.max_retries", cfg.Retrieval.MaxRetries)
	viper.SetDefault("retrieval.timeout", cfg.Retrieval.Timeout)
	viper.SetDefault("retrieval.user_agent", cfg.Retrieval.UserAgent)

	viper.SetDefault("cache.dir", cfg.Cache.Dir)
	viper.SetDefault("cache.in_memory", cfg.Cache.InMemory)

	viper.SetDefault("rank.k1", cfg.Rank.K1)
	viper.SetDefault("rank.b", cfg.Rank.B)
	viper.SetDefault("rank.per_variant_top", cfg.Rank.PerVariantTop)
	viper.SetDefault("rank.fuse_top", cfg.Rank.FuseTop)
	viper.SetDefault("rank.final_top", cfg.Rank.FinalTop)
	viper.SetDefault("rank.rrf_constant", cfg.Rank.RRFConstant)

	viper.SetDefault("ai.base_url", cfg.AI.BaseURL)
	viper.SetDefault("ai.model", cfg.AI.Model)
	viper.SetDefault("ai.embed_model", cfg.AI.EmbedModel)
	viper.SetDefault("ai.timeout", cfg.AI.Timeout)

	viper.SetDefault("extraction.max_repairs", cfg.Extraction.MaxRepairs)
	viper.SetDefault("extraction.max_retries", cfg.Extraction.MaxRetries)

	viper.SetDefault("policy.min_unique_pmids", cfg.Policy.MinUniquePMIDs)
	viper.SetDefault("policy.min_supporting", cfg.Policy.MinSupporting)
	viper.SetDefault("policy.topic_min", cfg.Policy.TopicMin)
	viper.SetDefault("policy.go_score", cfg.Policy.GoScore)
	viper.SetDefault("policy.maybe_score", cfg.Policy.MaybeScore)
	viper.SetDefault("policy.safety_floor", cfg.Policy.SafetyFloor)
	viper.SetDefault("policy.hard_safety", cfg.Policy.HardSafety)
	viper.SetDefault("policy.safety_blacklist", cfg.Policy.SafetyBlacklist)

	viper.SetDefault("triage.workers", cfg.Triage.Workers)
	viper.SetDefault("triage.output_dir", cfg.Triage.OutputDir)
	viper.SetDefault("triage.results_db", cfg.Triage.ResultsDB)
	viper.SetDefault("triage.registry_feed", cfg.Triage.RegistryFeed)
}

// loadConfig materializes the immutable run configuration from viper
// and the loaded secrets. Components receive this by parameter; nothing
// downstream reads process state.
func loadConfig() types.Config {
	cfg := types.DefaultConfig()

	cfg.Retrieval.MaxResults = viper.GetInt("retrieval.max_results")
	cfg.Retrieval.RequestDelay = viper.GetDuration("retrieval.request_delay")
	cfg.Retrieval.MaxRetries = viper.GetInt("retrieval.max_retries")
	cfg.Retrieval.Timeout = viper.GetDuration("retrieval.timeout")
	cfg.Retrieval.UserAgent = viper.GetString("retrieval.user_agent")
	cfg.Retrieval.APIKey = secrets.Get(loadedSecrets, "ncbi-api-key", viper.GetString("retrieval.api_key"))

	cfg.Cache.Dir = viper.GetString("cache.dir")
	cfg.Cache.InMemory = viper.GetBool("cache.in_memory")

	cfg.Rank.K1 = viper.GetFloat64("rank.k1")
	cfg.Rank.B = viper.GetFloat64("rank.b")
	cfg.Rank.PerVariantTop = viper.GetInt("rank.per_variant_top")
	cfg.Rank.FuseTop = viper.GetInt("rank.fuse_top")
	cfg.Rank.FinalTop = viper.GetInt("rank.final_top")
	cfg.Rank.RRFConstant = viper.GetFloat64("rank.rrf_constant")

	cfg.AI.BaseURL = secrets.Get(loadedSecrets, "llm-base-url", viper.GetString("ai.base_url"))
	cfg.AI.APIKey = secrets.Get(loadedSecrets, "llm-api-key", viper.GetString("ai.api_key"))
	cfg.AI.Model = viper.GetString("ai.model")
	cfg.AI.EmbedBaseURL = secrets.Get(loadedSecrets, "embed-base-url", viper.GetString("ai.embed_base_url"))
	cfg.AI.EmbedModel = viper.GetString("ai.embed_model")
	cfg.AI.Timeout = viper.GetDuration("ai.timeout")

	cfg.Extraction.MaxRepairs = viper.GetInt("extraction.max_repairs")
	cfg.Extraction.MaxRetries = viper.GetInt("extraction.max_retries")

	cfg.Policy.MinUniquePMIDs = viper.GetInt("policy.min_unique_pmids")
	cfg.Policy.MinSupporting = viper.GetInt("policy.min_supporting")
	cfg.Policy.TopicMin = viper.GetFloat64("policy.topic_min")
	cfg.Policy.GoScore = viper.GetFloat64("policy.go_score")
	cfg.Policy.MaybeScore = viper.GetFloat64("policy.maybe_score")
	cfg.Policy.SafetyFloor = viper.GetFloat64("policy.safety_floor")
	cfg.Policy.HardSafety = viper.GetBool("policy.hard_safety")
	cfg.Policy.SafetyBlacklist = viper.GetStringSlice("policy.safety_blacklist")

	cfg.Triage.Workers = viper.GetInt("triage.workers")
	cfg.Triage.OutputDir = viper.GetString("triage.output_dir")
	cfg.Triage.ResultsDB = viper.GetString("triage.results_db")
	cfg.Triage.RegistryFeed = viper.GetString("triage.registry_feed")

	if cfg.Retrieval.Timeout <= 0 {
		cfg.Retrieval.Timeout = 30 * time.Second
	}
	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
