package cmd

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Spotas/Ai-rewrite/internal/config"
)

// secretSuffixes mark environment variables whose values are masked.
var secretSuffixes = []string{"API_KEY", "SECRET", "TOKEN"}

// ConfigCheckResult holds the result of an environment check
type ConfigCheckResult struct {
	Present  map[string]string // AIREWRITE_ variables that are set (secrets masked)
	Warnings []string          // Non-fatal warnings
}

// CheckEnvironment lists the AIREWRITE_ overrides in the environment and
// warns about settings that will stop rewrites from working.
func CheckEnvironment(cfg *config.Config) *ConfigCheckResult {
	result := &ConfigCheckResult{
		Present:  make(map[string]string),
		Warnings: []string{},
	}

	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, config.EnvPrefix) {
			continue
		}
		if isSecretVar(name) {
			value = maskSecret(value)
		}
		result.Present[name] = value
	}

	if cfg != nil {
		if cfg.Settings().APIKey == "" && cfg.Pipeline().RequireAPIKey {
			result.Warnings = append(result.Warnings,
				"no API key configured; set gemini.api_key or "+config.EnvPrefix+"GEMINI_API_KEY, or save one with 'settings set --api-key'")
		}
		if cfg.Server.Secret == "" {
			result.Warnings = append(result.Warnings,
				"server.secret is empty; the HTTP API will accept unauthenticated requests")
		}
	}

	return result
}

func isSecretVar(name string) bool {
	for _, suffix := range secretSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// PrintConfigCheck prints the environment check results
func PrintConfigCheck(result *ConfigCheckResult) {
	fmt.Println("=== Environment Check ===")

	if len(result.Present) > 0 {
		fmt.Println("✓ Environment overrides:")
		names := make([]string, 0, len(result.Present))
		for k := range result.Present {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Printf("   - %s = %s\n", k, result.Present[k])
		}
		fmt.Println("")
	} else {
		fmt.Println("No " + config.EnvPrefix + " overrides set")
		fmt.Println("")
	}

	for _, w := range result.Warnings {
		fmt.Printf("⚠ Warning: %s\n", w)
	}

	fmt.Println("=========================")
}

// maskSecret masks a secret value for display, showing only first and last 2 chars
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}

// LoadEnvFile loads environment variables from a file, overwriting existing ones.
func LoadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(key), "export "))
		value = strings.TrimSpace(value)

		// Remove quotes if present
		if len(value) >= 2 && ((value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'')) {
			value = value[1 : len(value)-1]
		}

		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("failed to set env var %s: %w", key, err)
		}
	}

	return scanner.Err()
}
