package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/longevityfoodlab/citegate/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "citegate",
	Short: "Citegate - Registry-backed verification of nutrition research citations",
	Long: `Citegate verifies research citations produced by AI assistants before
they reach users.

Every citation is checked against the bibliographic registries (Crossref
for DOIs, PubMed for PMIDs) and cross-checked for journal, year, and
author consistency. Citations that cannot be confirmed are dropped,
never flagged and passed along.

Citegate releases one credibility level per batch: registry-verified
primary studies when any exist, authoritative reviews otherwise.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Citegate.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("citegate v0.1.4")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.citegate/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.citegate")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match CITEGATE_*.
	// The replacer maps nested keys, so verification.enabled becomes
	// CITEGATE_VERIFICATION_ENABLED.
	viper.SetEnvPrefix("CITEGATE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig builds the effective configuration: defaults first, then the
// config file and CITEGATE_* environment on top. Command flags are applied
// by each command after this.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if viper.IsSet("verification.enabled") {
		cfg.Verification.Enabled = viper.GetBool("verification.enabled")
	}
	if viper.IsSet("verification.workers") {
		cfg.Verification.Workers = viper.GetInt("verification.workers")
	}

	if viper.IsSet("registry.lookup_timeout") {
		cfg.Registry.LookupTimeout = viper.GetDuration("registry.lookup_timeout")
	}
	if viper.IsSet("registry.resolve_timeout") {
		cfg.Registry.ResolveTimeout = viper.GetDuration("registry.resolve_timeout")
	}
	if viper.IsSet("registry.crossref_base_url") {
		cfg.Registry.CrossrefBaseURL = viper.GetString("registry.crossref_base_url")
	}
	if viper.IsSet("registry.pubmed_base_url") {
		cfg.Registry.PubMedBaseURL = viper.GetString("registry.pubmed_base_url")
	}
	if viper.IsSet("registry.doi_resolver_url") {
		cfg.Registry.DOIResolverURL = viper.GetString("registry.doi_resolver_url")
	}
	if viper.IsSet("registry.pubmed_resolver_url") {
		cfg.Registry.PubMedResolverURL = viper.GetString("registry.pubmed_resolver_url")
	}

	if viper.IsSet("review.journals") {
		cfg.Review.Journals = viper.GetStringSlice("review.journals")
	}
	if viper.IsSet("review.institutions") {
		cfg.Review.Institutions = viper.GetStringSlice("review.institutions")
	}
	if viper.IsSet("review.causal_terms") {
		cfg.Review.CausalTerms = viper.GetStringSlice("review.causal_terms")
	}

	if viper.IsSet("audit.enabled") {
		cfg.Audit.Enabled = viper.GetBool("audit.enabled")
	}
	if viper.IsSet("audit.timeout") {
		cfg.Audit.Timeout = viper.GetDuration("audit.timeout")
	}
	if viper.IsSet("audit.workers") {
		cfg.Audit.Workers = viper.GetInt("audit.workers")
	}
	if viper.IsSet("audit.max_body_bytes") {
		cfg.Audit.MaxBodyBytes = viper.GetInt64("audit.max_body_bytes")
	}
	if viper.IsSet("audit.respect_robots") {
		cfg.Audit.RespectRobots = viper.GetBool("audit.respect_robots")
	}
	if viper.IsSet("audit.check_meta") {
		cfg.Audit.CheckMeta = viper.GetBool("audit.check_meta")
	}

	if viper.IsSet("rate_limiting.requests_per_second") {
		cfg.RateLimiting.RequestsPerSecond = viper.GetFloat64("rate_limiting.requests_per_second")
	}
	if viper.IsSet("rate_limiting.burst_size") {
		cfg.RateLimiting.BurstSize = viper.GetInt("rate_limiting.burst_size")
	}

	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if viper.IsSet("cache.dir") {
		cfg.Cache.Dir = viper.GetString("cache.dir")
	}
	if viper.IsSet("cache.memory_ttl") {
		cfg.Cache.MemoryTTL = viper.GetDuration("cache.memory_ttl")
	}
	if viper.IsSet("cache.disk_ttl") {
		cfg.Cache.DiskTTL = viper.GetDuration("cache.disk_ttl")
	}

	if viper.IsSet("http.user_agent") {
		cfg.HTTP.UserAgent = viper.GetString("http.user_agent")
	}
	if viper.IsSet("http.http_proxy") {
		cfg.HTTP.HTTPProxy = viper.GetString("http.http_proxy")
	}
	if viper.IsSet("http.https_proxy") {
		cfg.HTTP.HTTPSProxy = viper.GetString("http.https_proxy")
	}
	if viper.IsSet("http.no_proxy") {
		cfg.HTTP.NoProxy = viper.GetString("http.no_proxy")
	}

	if viper.IsSet("llm.provider") {
		cfg.LLM.Provider = viper.GetString("llm.provider")
	}
	if viper.IsSet("llm.model") {
		cfg.LLM.Model = viper.GetString("llm.model")
	}
	if viper.IsSet("llm.api_key") {
		cfg.LLM.APIKey = viper.GetString("llm.api_key")
	}
	if viper.IsSet("llm.base_url") {
		cfg.LLM.BaseURL = viper.GetString("llm.base_url")
	}
	if viper.IsSet("llm.timeout") {
		cfg.LLM.Timeout = viper.GetInt("llm.timeout")
	}
	if viper.IsSet("llm.max_tokens") {
		cfg.LLM.MaxTokens = viper.GetInt("llm.max_tokens")
	}

	cfg.Output.Verbose = verbose

	return cfg
}
