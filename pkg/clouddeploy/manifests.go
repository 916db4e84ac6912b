package clouddeploy

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseAppManifest decodes a YAML application manifest into a create
// request and validates it. Manifests use the same field names as the API
// payload, so a definition checked into a repository can be applied as-is.
func ParseAppManifest(data []byte) (*AppCreateRequest, error) {
	var request AppCreateRequest

	err := yaml.Unmarshal(data, &request)
	if err != nil {
		return nil, fmt.Errorf("parsing app manifest: %w", err)
	}

	if err := ValidateResource(&request); err != nil {
		return nil, err
	}

	return &request, nil
}

// ReadAppManifest reads and parses a manifest from r.
func ReadAppManifest(r io.Reader) (*AppCreateRequest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading app manifest: %w", err)
	}

	return ParseAppManifest(data)
}

// LoadAppManifest reads and parses a manifest file.
func LoadAppManifest(path string) (*AppCreateRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading app manifest: %w", err)
	}

	return ParseAppManifest(data)
}
