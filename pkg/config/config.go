package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		BaseURL     string  `yaml:"base_url"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
		APIKey      string  `yaml:"-"`
	} `yaml:"llm"`

	Embedding struct {
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
		APIKey  string `yaml:"-"`
	} `yaml:"embedding"`

	Search struct {
		SerperAPIKey string `yaml:"-"`
		WebResults   int    `yaml:"web_results"`
		ArxivResults int    `yaml:"arxiv_results"`
	} `yaml:"search"`

	Index struct {
		WorkspaceDir string `yaml:"workspace_dir"`
		ChunkSize    int    `yaml:"chunk_size"`
		ChunkOverlap int    `yaml:"chunk_overlap"`
		TopK         int    `yaml:"top_k"`
	} `yaml:"index"`

	Agent struct {
		MaxRounds       int `yaml:"max_rounds"`
		CallTimeoutSecs int `yaml:"call_timeout_secs"`
	} `yaml:"agent"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

func LoadConfig(path string) (*Config, error) {
	// Environment files are optional; a missing .env is not an error.
	_ = godotenv.Load()

	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/askpdf/config.yaml"),
			"/etc/askpdf/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

// NewDefaultConfig returns a Config with defaults applied and no file
// or environment input.
func NewDefaultConfig() *Config {
	config := &Config{}
	applyDefaults(config)
	return config
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "https://api.groq.com/openai/v1"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "moonshotai/kimi-k2-instruct-0905"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}

	if config.Embedding.BaseURL == "" {
		config.Embedding.BaseURL = "https://api.openai.com/v1"
	}
	if config.Embedding.Model == "" {
		config.Embedding.Model = "text-embedding-3-small"
	}

	if config.Search.WebResults == 0 {
		config.Search.WebResults = 5
	}
	if config.Search.ArxivResults == 0 {
		config.Search.ArxivResults = 3
	}

	if config.Index.WorkspaceDir == "" {
		config.Index.WorkspaceDir = ".rag_workspace"
	}
	if config.Index.ChunkSize == 0 {
		config.Index.ChunkSize = 800
	}
	if config.Index.ChunkOverlap == 0 {
		config.Index.ChunkOverlap = 150
	}
	if config.Index.TopK == 0 {
		config.Index.TopK = 5
	}

	if config.Agent.MaxRounds == 0 {
		config.Agent.MaxRounds = 8
	}
	if config.Agent.CallTimeoutSecs == 0 {
		config.Agent.CallTimeoutSecs = 60
	}

	if config.Server.Port == "" {
		config.Server.Port = "8000"
	}
}

func mergeWithEnv(config *Config) {
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		config.LLM.APIKey = key
	}
	if base := os.Getenv("GROQ_BASE_URL"); base != "" {
		config.LLM.BaseURL = base
	}
	if model := os.Getenv("MODEL_NAME"); model != "" {
		config.LLM.Model = model
	}
	if key := os.Getenv("EMBEDDING_API_KEY"); key != "" {
		config.Embedding.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		config.Embedding.APIKey = key
	}
	if base := os.Getenv("EMBEDDING_BASE_URL"); base != "" {
		config.Embedding.BaseURL = base
	}
	if model := os.Getenv("EMBEDDING_MODEL"); model != "" {
		config.Embedding.Model = model
	}
	if key := os.Getenv("SERPER_API_KEY"); key != "" {
		config.Search.SerperAPIKey = key
	}
	if dir := os.Getenv("WORKSPACE_DIR"); dir != "" {
		config.Index.WorkspaceDir = dir
	}
	if port := os.Getenv("PORT"); port != "" {
		config.Server.Port = port
	}
}

// Warnings reports configuration that is usable but will fail at first
// use, such as missing provider credentials. Missing credentials are not
// fatal at startup.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.LLM.APIKey == "" {
		warnings = append(warnings, "GROQ_API_KEY missing in environment; chat calls will fail")
	}
	if c.Embedding.APIKey == "" {
		warnings = append(warnings, "embedding API key missing in environment; uploads will fail")
	}
	if c.Search.SerperAPIKey == "" {
		warnings = append(warnings, "SERPER_API_KEY missing in environment; web search will fail")
	}
	return warnings
}
