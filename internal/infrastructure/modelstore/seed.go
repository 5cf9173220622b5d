package modelstore

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/docclass/internal/core/domain"
)

//go:embed seed_corpus.yaml
var seedCorpusYAML []byte

type SeedCategory struct {
	Name    string   `yaml:"name"`
	Samples []string `yaml:"samples"`
}

// SeedCorpus holds the hand-written training documents used for bootstrap
// and the fixed validation sentences used by model evaluation.
type SeedCorpus struct {
	Categories []SeedCategory            `yaml:"categories"`
	Validation []domain.EvaluationSample `yaml:"validation"`
}

// DefaultSeedCorpus parses the embedded corpus.
func DefaultSeedCorpus() (*SeedCorpus, error) {
	return ParseSeedCorpus(seedCorpusYAML)
}

func ParseSeedCorpus(data []byte) (*SeedCorpus, error) {
	var corpus SeedCorpus
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return nil, fmt.Errorf("decode seed corpus: %w", err)
	}
	if err := corpus.Validate(); err != nil {
		return nil, err
	}
	return &corpus, nil
}

// Validate checks that categories appear in the fixed order, each with at
// least one sample, and that validation labels name known categories.
func (c *SeedCorpus) Validate() error {
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		if len(cat.Samples) == 0 {
			return fmt.Errorf("seed category %q has no samples", cat.Name)
		}
		names = append(names, cat.Name)
	}
	if err := domain.CheckClassOrder(names); err != nil {
		return fmt.Errorf("seed corpus: %w", err)
	}
	for _, sample := range c.Validation {
		if _, err := domain.ParseCategory(sample.Expected); err != nil {
			return fmt.Errorf("seed validation sample %q: %w", sample.Text, err)
		}
	}
	return nil
}

// Labeled flattens the corpus into texts with category indices.
func (c *SeedCorpus) Labeled() ([]string, []int) {
	var texts []string
	var labels []int
	for idx, cat := range c.Categories {
		for _, s := range cat.Samples {
			texts = append(texts, s)
			labels = append(labels, idx)
		}
	}
	return texts, labels
}
