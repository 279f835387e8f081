package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/papercomputeco/scribe/pkg/llm"
)

// envKeys are the conventional API key variables per kind, in lookup order.
var envKeys = map[llm.ProviderKind][]string{
	llm.OpenAICompatible: {"OPENAI_API_KEY"},
	llm.Anthropic:        {"ANTHROPIC_API_KEY"},
	llm.Google:           {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// LoadEnv loads .env files into the process environment without overriding
// variables that are already set. With no paths it reads ./.env and then
// .env inside configDir. Missing files are skipped.
func LoadEnv(configDir string, paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
		if configDir != "" {
			paths = append(paths, filepath.Join(configDir, ".env"))
		}
	}

	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

func apiKeyFromEnv(kind llm.ProviderKind, override string) string {
	if override != "" {
		return os.Getenv(override)
	}
	for _, name := range envKeys[kind] {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
