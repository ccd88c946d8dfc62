package model

import "time"

// Config is the complete citegate configuration
type Config struct {
	Verification VerificationConfig `yaml:"verification"`
	Registry     RegistryConfig     `yaml:"registry"`
	Review       ReviewConfig       `yaml:"review"`
	Audit        AuditConfig        `yaml:"audit"`
	RateLimiting RateLimitConfig    `yaml:"rate_limiting"`
	Cache        CacheConfig        `yaml:"cache"`
	HTTP         HTTPConfig         `yaml:"http"`
	LLM          LLMConfig          `yaml:"llm"`
	Output       OutputConfig       `yaml:"output"`
}

// VerificationConfig controls the verification pass itself
type VerificationConfig struct {
	Enabled bool `yaml:"enabled"` // Off means every batch verifies to empty
	Workers int  `yaml:"workers"` // Concurrent citations per batch
}

// RegistryConfig points the verifier at the bibliographic registries
type RegistryConfig struct {
	LookupTimeout     time.Duration `yaml:"lookup_timeout"`
	ResolveTimeout    time.Duration `yaml:"resolve_timeout"`
	CrossrefBaseURL   string        `yaml:"crossref_base_url"`
	PubMedBaseURL     string        `yaml:"pubmed_base_url"`
	DOIResolverURL    string        `yaml:"doi_resolver_url"`
	PubMedResolverURL string        `yaml:"pubmed_resolver_url"`
}

// ReviewConfig is the allow-list for the authoritative-review tier
type ReviewConfig struct {
	Journals     []string `yaml:"journals"`
	Institutions []string `yaml:"institutions"`
	CausalTerms  []string `yaml:"causal_terms"` // Claim wording too strong for this tier
}

// AuditConfig controls the optional convenience-link audit
type AuditConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Timeout       time.Duration `yaml:"timeout"`
	Workers       int           `yaml:"workers"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes"` // Cap when fetching landing pages
	RespectRobots bool          `yaml:"respect_robots"`
	CheckMeta     bool          `yaml:"check_meta"` // Compare citation_* meta tags on landing pages
}

// RateLimitConfig caps outbound request rates per host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// CacheConfig controls registry lookup caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"` // Empty means memory only
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// HTTPConfig applies to every outbound client
type HTTPConfig struct {
	UserAgent  string `yaml:"user_agent"`
	HTTPProxy  string `yaml:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy"`
	NoProxy    string `yaml:"no_proxy"`
}

// LLMConfig configures the optional citation suggester
type LLMConfig struct {
	Provider  string `yaml:"provider"` // openai, anthropic, ollama; empty disables
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	Timeout   int    `yaml:"timeout"` // Seconds
	MaxTokens int    `yaml:"max_tokens"`
}

// OutputConfig controls CLI output behavior
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns the standard configuration. The review allow-list
// ships with the journals and institutions the product trusts out of the box;
// deployments override it through the config file.
func DefaultConfig() *Config {
	return &Config{
		Verification: VerificationConfig{
			Enabled: true,
			Workers: 4,
		},
		Registry: RegistryConfig{
			LookupTimeout:     10 * time.Second,
			ResolveTimeout:    10 * time.Second,
			CrossrefBaseURL:   "https://api.crossref.org",
			PubMedBaseURL:     "https://eutils.ncbi.nlm.nih.gov",
			DOIResolverURL:    "https://doi.org",
			PubMedResolverURL: "https://pubmed.ncbi.nlm.nih.gov",
		},
		Review: ReviewConfig{
			Journals: []string{
				"Cochrane Database of Systematic Reviews",
				"Nutrition Reviews",
				"Annual Review of Nutrition",
				"Advances in Nutrition",
				"American Journal of Clinical Nutrition",
				"British Journal of Nutrition",
				"Journal of the Academy of Nutrition and Dietetics",
				"Critical Reviews in Food Science and Nutrition",
				"Nutrients",
				"JAMA",
				"The Lancet",
				"BMJ",
				"New England Journal of Medicine",
			},
			Institutions: []string{
				"National Institutes of Health",
				"World Health Organization",
				"Harvard T.H. Chan School of Public Health",
				"Mayo Clinic",
				"European Food Safety Authority",
			},
			CausalTerms: []string{
				"cures", "cure", "treats", "treat", "prevents", "prevent",
				"reverses", "reverse", "eliminates", "heals",
			},
		},
		Audit: AuditConfig{
			Enabled:       true,
			Timeout:       15 * time.Second,
			Workers:       8,
			MaxBodyBytes:  2 * 1024 * 1024,
			RespectRobots: true,
			CheckMeta:     true,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2.0,
			BurstSize:         1,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		HTTP: HTTPConfig{
			UserAgent: "Citegate/0.1 (+https://github.com/longevityfoodlab/citegate)",
		},
		LLM: LLMConfig{
			Provider:  "",
			Timeout:   30,
			MaxTokens: 1500,
		},
		Output: OutputConfig{
			Verbose: false,
		},
	}
}
