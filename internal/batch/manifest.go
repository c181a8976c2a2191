package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// ManifestEntry describes one rendered tile in the output manifest.
type ManifestEntry struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Image  string `json:"image"`
	Source string `json:"source"`
	Bytes  int    `json:"bytes"`
	Drawn  int    `json:"drawn"`
	Faces  int    `json:"faces"`
}

// WriteManifest writes the successful results to path as JSON. Image paths
// are relative to the manifest's directory.
func WriteManifest(path string, results []Result) error {
	base := filepath.Dir(path)
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		if !r.Success {
			continue
		}
		image := r.Output
		if rel, err := filepath.Rel(base, r.Output); err == nil {
			image = filepath.ToSlash(rel)
		}
		entries = append(entries, ManifestEntry{
			X:      r.X,
			Y:      r.Y,
			Image:  image,
			Source: r.Source,
			Bytes:  r.Bytes,
			Drawn:  r.Drawn,
			Faces:  r.Faces,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
