package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Environment        string
	ServerPort         int
	CORSAllowedOrigins []string

	DatabaseURL      string
	RedisURL         string
	TelegramBotToken string

	MarketDataTimeoutSecs int
	MarketDataProxyURL    string

	SchedulerEnabled    bool
	RefreshBatchSize    int
	RefreshBatchDelayMs int
	ScreenerConcurrency int
	DetectConcurrency   int

	SignalDedupeHours  int
	OutcomeHorizonDays int

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int

	SSHEnabled     bool
	SSHBind        string
	SSHPort        int
	SSHHostKeyPath string

	OpenAIAPIKey      string
	OpenAIModel       string
	AdvisorMaxHistory int

	MLEnabled         bool
	MLTrainWindowDays int
	MLMinTrainSamples int
	MLLongThreshold   float64
	MLShortThreshold  float64
	MLAnomalyThresh   float64
	MLIForestTrees    int
	MLIForestSample   int
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
	}

	cfg.Environment = strings.TrimSpace(os.Getenv("APP_ENV"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.ServerPort = 8080
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ServerPort = n
		}
	}

	cfg.CORSAllowedOrigins = []string{"http://localhost:3000"}
	if v := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.CORSAllowedOrigins = origins
		}
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, alerts disabled")
	}

	cfg.MarketDataTimeoutSecs = 30
	if v := strings.TrimSpace(os.Getenv("MARKET_DATA_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MarketDataTimeoutSecs = n
		}
	}
	cfg.MarketDataProxyURL = strings.TrimSpace(os.Getenv("MARKET_DATA_PROXY_URL"))

	cfg.SchedulerEnabled = true
	if v := strings.TrimSpace(os.Getenv("SCHEDULER_ENABLED")); v != "" {
		cfg.SchedulerEnabled = strings.EqualFold(v, "true")
	}

	cfg.RefreshBatchSize = 20
	if v := strings.TrimSpace(os.Getenv("REFRESH_BATCH_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RefreshBatchSize = n
		}
	}

	cfg.RefreshBatchDelayMs = 500
	if v := strings.TrimSpace(os.Getenv("REFRESH_BATCH_DELAY_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RefreshBatchDelayMs = n
		}
	}

	cfg.ScreenerConcurrency = 10
	if v := strings.TrimSpace(os.Getenv("SCREENER_CONCURRENCY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ScreenerConcurrency = n
		}
	}

	cfg.DetectConcurrency = 5
	if v := strings.TrimSpace(os.Getenv("DETECT_CONCURRENCY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DetectConcurrency = n
		}
	}

	cfg.SignalDedupeHours = 24
	if v := strings.TrimSpace(os.Getenv("SIGNAL_DEDUPE_HOURS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SignalDedupeHours = n
		}
	}

	cfg.OutcomeHorizonDays = 5
	if v := strings.TrimSpace(os.Getenv("OUTCOME_HORIZON_DAYS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.OutcomeHorizonDays = n
		}
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Printf("Warning: unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}

	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")

	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}

	cfg.MCPHTTPPort = 8090
	if v := strings.TrimSpace(os.Getenv("MCP_HTTP_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPHTTPPort = n
		}
	}

	cfg.MCPRequestTimeoutSecs = 5
	if v := strings.TrimSpace(os.Getenv("MCP_REQUEST_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRequestTimeoutSecs = n
		}
	}

	cfg.MCPRateLimitPerMin = 60
	if v := strings.TrimSpace(os.Getenv("MCP_RATE_LIMIT_PER_MIN")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MCPRateLimitPerMin = n
		}
	}

	cfg.SSHEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("SSH_ENABLED")), "true")

	cfg.SSHBind = strings.TrimSpace(os.Getenv("SSH_BIND"))
	if cfg.SSHBind == "" {
		cfg.SSHBind = "0.0.0.0"
	}

	cfg.SSHPort = 2222
	if v := strings.TrimSpace(os.Getenv("SSH_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SSHPort = n
		}
	}

	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/argus_ed25519"
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, advisor will be disabled")
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.AdvisorMaxHistory = 20
	if v := os.Getenv("ADVISOR_MAX_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AdvisorMaxHistory = n
		}
	}

	cfg.MLEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("ML_ENABLED")), "true")

	cfg.MLTrainWindowDays = 730
	if v := strings.TrimSpace(os.Getenv("ML_TRAIN_WINDOW_DAYS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MLTrainWindowDays = n
		}
	}

	cfg.MLMinTrainSamples = 1000
	if v := strings.TrimSpace(os.Getenv("ML_MIN_TRAIN_SAMPLES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MLMinTrainSamples = n
		}
	}

	cfg.MLLongThreshold = 0.55
	if v := strings.TrimSpace(os.Getenv("ML_LONG_THRESHOLD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n < 1 {
			cfg.MLLongThreshold = n
		}
	}

	cfg.MLShortThreshold = 0.45
	if v := strings.TrimSpace(os.Getenv("ML_SHORT_THRESHOLD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n < 1 {
			cfg.MLShortThreshold = n
		}
	}

	cfg.MLAnomalyThresh = 0.62
	if v := strings.TrimSpace(os.Getenv("ML_ANOMALY_THRESHOLD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n < 1 {
			cfg.MLAnomalyThresh = n
		}
	}

	cfg.MLIForestTrees = 200
	if v := strings.TrimSpace(os.Getenv("ML_IFOREST_TREES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MLIForestTrees = n
		}
	}

	cfg.MLIForestSample = 256
	if v := strings.TrimSpace(os.Getenv("ML_IFOREST_SAMPLE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MLIForestSample = n
		}
	}

	return cfg
}
