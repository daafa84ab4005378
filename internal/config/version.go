package config

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// fallbackVersion is reported when neither APP_VERSION nor a VERSION file is available
const fallbackVersion = "0.1.0"

// GetVersion returns the harvester version from APP_VERSION, or the VERSION
// file in the working directory suffixed with the git commit count
func GetVersion() string {
	if envVersion := strings.TrimSpace(os.Getenv("APP_VERSION")); envVersion != "" {
		return envVersion
	}

	baseVersion := readVersionFile("VERSION")
	if commitCount := getGitCommitCount(); commitCount > 0 {
		return baseVersion + "." + strconv.Itoa(commitCount)
	}
	return baseVersion
}

// readVersionFile returns the trimmed contents of path or the fallback version
func readVersionFile(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return fallbackVersion
	}
	if v := strings.TrimSpace(string(content)); v != "" {
		return v
	}
	return fallbackVersion
}

// getGitCommitCount gets the commit count of HEAD, 0 outside a git checkout
func getGitCommitCount() int {
	output, err := exec.Command("git", "rev-list", "--count", "HEAD").Output()
	if err != nil {
		return 0
	}

	count, err := strconv.Atoi(strings.TrimSpace(string(output)))
	if err != nil {
		return 0
	}
	return count
}
