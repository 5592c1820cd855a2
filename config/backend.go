package config

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

var (
	backendOnce   sync.Once
	backendConfig *BackendConfig
)

// BackendConfig describes the remote storage/vectorization backend the
// remote transport adapter talks to.
type BackendConfig struct {
	BaseURL       string
	APIKey        string
	UploadTimeout time.Duration
}

const defaultUploadTimeout = 300 * time.Second

func GetBackendConfig() *BackendConfig {
	backendOnce.Do(func() {
		loadDotEnv()

		baseURL := os.Getenv("UPLOADER_BACKEND_URL")
		if baseURL == "" {
			baseURL = "http://localhost:8000"
		}

		timeout := defaultUploadTimeout
		if v := os.Getenv("UPLOADER_UPLOAD_TIMEOUT"); v != "" {
			if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
				timeout = parsed
			}
		}

		backendConfig = &BackendConfig{
			BaseURL:       baseURL,
			APIKey:        os.Getenv("UPLOADER_BACKEND_API_KEY"),
			UploadTimeout: timeout,
		}
	})
	return backendConfig
}

var dotEnvOnce sync.Once

// loadDotEnv loads the repository .env once; missing files fall back to
// plain environment variables.
func loadDotEnv() {
	dotEnvOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		configDir := filepath.Dir(filename)
		rootDir := filepath.Dir(configDir)
		envPath := filepath.Join(rootDir, ".env")

		if err := godotenv.Load(envPath); err != nil {
			log.Printf("Warning: .env file not found at %s, falling back to environment variables", envPath)
		}
	})
}
