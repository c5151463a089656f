// Package config loads typed configuration structs from the environment.
// A dotenv file (-env flag, APP_ENV_FILE variable, or ./.env when present)
// is exported into the process environment once per process; after that,
// envconfig fills each struct from its tags. Variables already set in the
// real environment always win over file values.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const envFileVar = "APP_ENV_FILE"

var (
	envFlag     string
	loadEnvOnce sync.Once
	loadEnvErr  error
)

// MustNew panics when the typed config cannot be loaded. Use at startup.
func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New loads a typed config for the given envconfig prefix.
func New[T any](prefix string) (*T, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, fmt.Errorf("process %q config: %w", prefix, err)
	}
	return &conf, nil
}

// loadEnvFile exports the dotenv file into the process environment. The
// export runs once; every later New call sees the same environment.
func loadEnvFile() error {
	loadEnvOnce.Do(func() {
		path, explicit := envFilePath()
		if !explicit {
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				return
			}
		}
		loadEnvErr = exportDotenv(path)
	})
	return loadEnvErr
}

// envFilePath resolves the dotenv location: -env flag first, then the
// APP_ENV_FILE variable, then the optional ./.env default.
func envFilePath() (path string, explicit bool) {
	if flag.Lookup("env") == nil {
		flag.StringVar(&envFlag, "env", "", "path to .env file")
	}
	if !flag.Parsed() {
		flag.Parse()
	}

	if p := strings.TrimSpace(envFlag); p != "" {
		return p, true
	}
	if p := strings.TrimSpace(os.Getenv(envFileVar)); p != "" {
		return p, true
	}
	return ".env", false
}

func exportDotenv(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read env file %s: %w", path, err)
	}

	for key, value := range v.AllSettings() {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if err := os.Setenv(name, fmt.Sprint(value)); err != nil {
			return fmt.Errorf("export %s: %w", name, err)
		}
	}
	return nil
}
