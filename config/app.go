package config

import (
	"log"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	appOnce   sync.Once
	appConfig *AppConfig
)

// AppConfig holds service tunables. Values come from an optional YAML file
// (UPLOADER_CONFIG, default uploader.yaml); anything missing keeps its
// default.
type AppConfig struct {
	Adapter           string        `yaml:"adapter"`
	MaxFileSize       int64         `yaml:"maxFileSize"`
	AllowedExtensions []string      `yaml:"allowedExtensions"`
	Simulated         SimulatedOpts `yaml:"simulated"`
	Server            ServerOpts    `yaml:"server"`
}

type SimulatedOpts struct {
	Delay       time.Duration `yaml:"delay"`
	FailureRate float64       `yaml:"failureRate"`
	Seed        int64         `yaml:"seed"`
}

type ServerOpts struct {
	Addr string `yaml:"addr"`
}

func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Adapter:           "remote",
		MaxFileSize:       10 * 1024 * 1024,
		AllowedExtensions: []string{".txt", ".md", ".pdf", ".doc", ".docx", ".html", ".htm"},
		Simulated: SimulatedOpts{
			Delay:       500 * time.Millisecond,
			FailureRate: 0,
		},
		Server: ServerOpts{
			Addr: ":8080",
		},
	}
}

func GetAppConfig() *AppConfig {
	appOnce.Do(func() {
		loadDotEnv()
		appConfig = defaultAppConfig()

		path := os.Getenv("UPLOADER_CONFIG")
		if path == "" {
			path = "uploader.yaml"
		}

		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				log.Printf("Warning: cannot read config file %s: %v", path, err)
			}
			return
		}

		if err := yaml.Unmarshal(data, appConfig); err != nil {
			log.Printf("Warning: malformed config file %s: %v, using defaults", path, err)
			appConfig = defaultAppConfig()
		}
	})
	return appConfig
}
