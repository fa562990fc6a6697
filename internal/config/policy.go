package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"navigation-simulator/internal/camera"
)

// LoadPolicy reads the camera policy from a YAML file. An empty path yields the
// default policy. Fields missing from the file keep their default values.
func LoadPolicy(path string) (camera.Policy, error) {
	if path == "" {
		return camera.DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return camera.Policy{}, fmt.Errorf("read policy: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes and validates a YAML camera policy over the defaults.
func ParsePolicy(data []byte) (camera.Policy, error) {
	p := camera.DefaultPolicy()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return camera.Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	if err := validator.New().Struct(p); err != nil {
		return camera.Policy{}, fmt.Errorf("invalid policy: %w", err)
	}
	return p, nil
}
