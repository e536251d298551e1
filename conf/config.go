package conf

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

var config *RouterNode

// RouterNode is a compute router node config
type RouterNode struct {
	API     API
	ROUTING ROUTING
	SCORING SCORING
	FEED    FEED
	MCS     MCS
}

type API struct {
	Port          int
	Domain        string
	NodeName      string
	RedisUrl      string
	RedisPassword string
}

type ROUTING struct {
	QuoteTimeoutMs int
	TopN           int
	RegistryFile   string
}

type SCORING struct {
	PriceWeight      float64
	LatencyWeight    float64
	ReputationWeight float64
	GeographyWeight  float64
}

type FEED struct {
	ServerUrl         string
	RateMaxAgeSeconds int
	CacheTtlSeconds   int
}

type MCS struct {
	ApiKey        string
	AccessToken   string
	BucketName    string
	Network       string
	FileCachePath string
}

func InitConfig(routerRepoPath string) error {
	configFile := filepath.Join(routerRepoPath, "config.toml")

	if metaData, err := toml.DecodeFile(configFile, &config); err != nil {
		return fmt.Errorf("failed load config file, path: %s, error: %w", configFile, err)
	} else {
		if !requiredFieldsAreGiven(metaData) {
			log.Fatal("Required fields not given")
		}
	}
	return nil
}

func GetConfig() *RouterNode {
	return config
}

func requiredFieldsAreGiven(metaData toml.MetaData) bool {
	requiredFields := [][]string{
		{"API"},
		{"ROUTING"},
		{"SCORING"},
		{"FEED"},
		{"MCS"},

		{"API", "Port"},
		{"API", "RedisUrl"},

		{"ROUTING", "RegistryFile"},

		{"SCORING", "PriceWeight"},
		{"SCORING", "LatencyWeight"},
		{"SCORING", "ReputationWeight"},
		{"SCORING", "GeographyWeight"},

		{"FEED", "ServerUrl"},

		{"MCS", "ApiKey"},
		{"MCS", "BucketName"},
		{"MCS", "Network"},
		{"MCS", "FileCachePath"},
	}

	for _, v := range requiredFields {
		if !metaData.IsDefined(v...) {
			log.Fatal("Required fields ", v)
		}
	}

	return true
}
