package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the immutable run configuration. It is loaded once and handed
// by value to every component.
type Config struct {
	ChaosBaseURL         string
	ChaosEmail           string
	ChaosPassword        string
	ChaosAccessPointGUID string
	ChaosPageSize        int

	Organization       string
	PrimarySchemaGUID  string
	CrowdSchemaGUID    string
	DKANamespace       string
	CrowdNamespace     string
	PublishAccessPoint string
	SiteBaseURL        string
	SlugPathPrefix     string

	GABaseURL        string
	GAAccessToken    string
	GAIDs            string
	GAEventCategory  string
	GAPlayAction     string
	GACompleteAction string
	GADimension      string
	GAStartDate      string
	GAEndDate        string
	GAPageSize       int

	Timeout  time.Duration
	LogLevel string

	RabbitURI        string // empty disables publishing
	RabbitExchange   string
	RabbitRoutingKey string
}

const (
	ChaosBaseURL         = "CHAOS_BASE_URL"
	ChaosEmail           = "CHAOS_EMAIL"
	ChaosPassword        = "CHAOS_PASSWORD"
	ChaosAccessPointGUID = "CHAOS_ACCESS_POINT_GUID"
	ChaosPageSize        = "CHAOS_PAGE_SIZE"
	Organization         = "DKA_ORGANIZATION"
	PrimarySchemaGUID    = "PRIMARY_SCHEMA_GUID"
	CrowdSchemaGUID      = "CROWD_SCHEMA_GUID"
	DKANamespace         = "DKA_NAMESPACE"
	CrowdNamespace       = "CROWD_NAMESPACE"
	PublishAccessPoint   = "PUBLISH_ACCESS_POINT"
	SiteBaseURL          = "SITE_BASE_URL"
	SlugPathPrefix       = "SLUG_PATH_PREFIX"
	GABaseURL            = "GA_BASE_URL"
	GAAccessToken        = "GA_ACCESS_TOKEN"
	GAIDs                = "GA_IDS"
	GAEventCategory      = "GA_EVENT_CATEGORY"
	GAPlayAction         = "GA_PLAY_ACTION"
	GACompleteAction     = "GA_COMPLETE_ACTION"
	GADimension          = "GA_DIMENSION"
	GAStartDate          = "GA_START_DATE"
	GAEndDate            = "GA_END_DATE"
	GAPageSize           = "GA_PAGE_SIZE"
	Timeout              = "TIMEOUT"
	LogLevel             = "LOG_LEVEL"
	RabbitURIEnv         = "RABBIT_URI"
	RabbitExchangeEnv    = "RABBIT_EXCHANGE"
	RabbitRoutingKeyEnv  = "RABBIT_ROUTING_KEY"
)

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

func FromEnv() (Config, error) {
	return fromEnv(time.Now())
}

func fromEnv(now time.Time) (Config, error) {
	var cfg Config

	cfg.ChaosBaseURL = getEnv(ChaosBaseURL, "https://api.danskkulturarv.dk")
	cfg.ChaosEmail = getEnv(ChaosEmail, "")
	cfg.ChaosPassword = getEnv(ChaosPassword, "")
	cfg.Organization = getEnv(Organization, "DR")
	cfg.PrimarySchemaGUID = getEnv(PrimarySchemaGUID, "5906a41b-feae-48db-bfb7-714b3e105396")
	cfg.CrowdSchemaGUID = getEnv(CrowdSchemaGUID, "a37167e0-e13b-4d29-8a41-b0ffbaa1fe5f")
	cfg.DKANamespace = getEnv(DKANamespace, "http://www.danskkulturarv.dk/DKA2.xsd")
	cfg.CrowdNamespace = getEnv(CrowdNamespace, "http://www.danskkulturarv.dk/DKA-Crowd.xsd")
	cfg.PublishAccessPoint = getEnv(PublishAccessPoint, "c4c2b8da-a980-11e1-814b-02cea2621172")
	// Anonymous requests are scoped to the publish access point unless told otherwise.
	cfg.ChaosAccessPointGUID = getEnv(ChaosAccessPointGUID, cfg.PublishAccessPoint)
	cfg.SiteBaseURL = getEnv(SiteBaseURL, "https://www.danskkulturarv.dk")
	cfg.SlugPathPrefix = getEnv(SlugPathPrefix, "/dr/")

	cfg.GABaseURL = getEnv(GABaseURL, "https://www.googleapis.com/analytics/v3")
	cfg.GAAccessToken = getEnv(GAAccessToken, "")
	cfg.GAIDs = getEnv(GAIDs, "ga:51793449")
	cfg.GAEventCategory = getEnv(GAEventCategory, "JW Player Video")
	cfg.GAPlayAction = getEnv(GAPlayAction, "Play")
	cfg.GACompleteAction = getEnv(GACompleteAction, "Complete")
	cfg.GADimension = getEnv(GADimension, "ga:pagePath")

	// Analytics default to the previous calendar year.
	lastYear := now.Year() - 1
	cfg.GAStartDate = getEnv(GAStartDate, fmt.Sprintf("%d-01-01", lastYear))
	cfg.GAEndDate = getEnv(GAEndDate, fmt.Sprintf("%d-12-31", lastYear))

	cfg.LogLevel = getEnv(LogLevel, "info")
	cfg.RabbitURI = getEnv(RabbitURIEnv, "")
	cfg.RabbitExchange = getEnv(RabbitExchangeEnv, "dka.reports")
	cfg.RabbitRoutingKey = getEnv(RabbitRoutingKeyEnv, "report.generated")

	var err error
	if cfg.ChaosPageSize, err = getEnvInt(ChaosPageSize, 100); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", ChaosPageSize, err)
	}
	if cfg.GAPageSize, err = getEnvInt(GAPageSize, 1000); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", GAPageSize, err)
	}
	if cfg.ChaosPageSize <= 0 {
		return cfg, fmt.Errorf("invalid %v: must be positive", ChaosPageSize)
	}
	if cfg.GAPageSize <= 0 {
		return cfg, fmt.Errorf("invalid %v: must be positive", GAPageSize)
	}
	timeoutStr := getEnv(Timeout, "60s")
	if cfg.Timeout, err = time.ParseDuration(timeoutStr); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", Timeout, err)
	}

	return cfg, nil
}

// HasCredentials reports whether a CHAOS login should be performed.
func (c Config) HasCredentials() bool {
	return c.ChaosEmail != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return i, nil
}
