package config

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"cloud.google.com/go/compute/metadata"
	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort         string
	FirebaseProject    string
	FirebaseAPIKey     string
	ServiceAccountJSON string
	ServiceAccountPath string
	StorageBucket      string
	Environment        string
	SendRatePerMinute  int
	SendBurst          int
	AuthRatePerMinute  int
	AuthBurst          int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		FirebaseProject:    getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseAPIKey:     getEnv("FIREBASE_API_KEY", ""),
		ServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		StorageBucket:      getEnv("STORAGE_BUCKET", ""),
		Environment:        getEnv("ENVIRONMENT", "development"),
		SendRatePerMinute:  getEnvAsInt("SEND_RATE_PER_MINUTE", 30),
		SendBurst:          getEnvAsInt("SEND_BURST", 5),
		AuthRatePerMinute:  getEnvAsInt("AUTH_RATE_PER_MINUTE", 10),
		AuthBurst:          getEnvAsInt("AUTH_BURST", 5),
	}

	// On GCP the project is known to the metadata server.
	if config.FirebaseProject == "" && metadata.OnGCE() {
		projectID, err := metadata.ProjectIDWithContext(context.Background())
		if err != nil {
			return nil, err
		}
		config.FirebaseProject = projectID
	}

	if config.FirebaseProject == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required outside GCP")
	}

	if config.StorageBucket == "" {
		config.StorageBucket = config.FirebaseProject + ".appspot.com"
	}

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
