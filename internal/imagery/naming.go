package imagery

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"solarharvest/internal/models"
)

const (
	artifactTimeLayout = "20060102_150405"
	artifactInstrument = "AIA"
	artifactExt        = ".jpg"
)

// ArtifactName returns the deterministic file name for a task,
// e.g. 20140101_120000_AIA_171.jpg
func ArtifactName(task models.Task) string {
	return fmt.Sprintf("%s_%s_%d%s",
		task.Timestamp.UTC().Format(artifactTimeLayout),
		artifactInstrument,
		task.Channel.Wavelength,
		artifactExt)
}

// ParseArtifactName recovers the timestamp and wavelength from an artifact name
func ParseArtifactName(name string) (time.Time, int, error) {
	if !strings.HasSuffix(name, artifactExt) {
		return time.Time{}, 0, fmt.Errorf("not an artifact name: %q", name)
	}
	parts := strings.Split(strings.TrimSuffix(name, artifactExt), "_")
	if len(parts) != 4 || parts[2] != artifactInstrument {
		return time.Time{}, 0, fmt.Errorf("not an artifact name: %q", name)
	}

	ts, err := time.ParseInLocation(artifactTimeLayout, parts[0]+"_"+parts[1], time.UTC)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid artifact timestamp in %q: %w", name, err)
	}
	wavelength, err := strconv.Atoi(parts[3])
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid artifact wavelength in %q: %w", name, err)
	}
	return ts, wavelength, nil
}
