package repository

import (
	"fmt"
	"io"
	"os"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// fixedFile is the on-disk layout of a fixed-ingredient set
type fixedFile struct {
	FixedIngredients []models.FixedContribution `yaml:"fixed_ingredients"`
}

// ParseFixedYAML reads a fixed-ingredient set from YAML
func ParseFixedYAML(r io.Reader) (*InMemoryFixedRepository, error) {
	var f fixedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return NewInMemoryFixedRepository(nil)
		}
		return nil, fmt.Errorf("failed to decode fixed ingredients: %w", err)
	}
	return NewInMemoryFixedRepository(f.FixedIngredients)
}

// LoadFixedYAML reads a fixed-ingredient set from a YAML file
func LoadFixedYAML(path string) (*InMemoryFixedRepository, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixed ingredients file: %w", err)
	}
	defer file.Close()

	return ParseFixedYAML(file)
}
