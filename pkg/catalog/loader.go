package catalog

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fadedpez/vaultspin/pkg/entities"
)

//go:embed default.yaml
var defaultCatalogYAML []byte

// catalogFile is the on-disk YAML shape of a catalog
type catalogFile struct {
	Packs []packFile `yaml:"packs"`
}

type packFile struct {
	Key      string     `yaml:"key"`
	Name     string     `yaml:"name"`
	Icon     string     `yaml:"icon"`
	Theme    string     `yaml:"theme"`
	PriceEur float64    `yaml:"price_eur"`
	Cards    []cardFile `yaml:"cards"`
}

type cardFile struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Image    string  `yaml:"image"`
	ValueEur float64 `yaml:"value_eur"`
	Rarity   string  `yaml:"rarity"`
}

// Load reads a catalog from a YAML file. An empty path loads the embedded
// default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalogYAML)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading catalog file: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw YAML
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing catalog yaml: %w", err)
	}

	packs := make([]*entities.Pack, 0, len(file.Packs))
	for _, pf := range file.Packs {
		pack := &entities.Pack{
			Key:        pf.Key,
			Name:       pf.Name,
			Icon:       pf.Icon,
			Theme:      pf.Theme,
			PriceCents: eurToCents(pf.PriceEur),
		}
		for _, cf := range pf.Cards {
			pack.Cards = append(pack.Cards, &entities.Card{
				ID:       cf.ID,
				Name:     cf.Name,
				ImageRef: cf.Image,
				Value:    eurToCents(cf.ValueEur),
				Rarity:   parseRarity(cf.Rarity),
			})
		}
		packs = append(packs, pack)
	}

	return New(packs)
}

// parseRarity maps a catalog file rarity name to the entity rarity. Unknown
// names pass through so validation can report them with the card ID.
func parseRarity(s string) entities.Rarity {
	switch s {
	case "hidden":
		return entities.RarityHidden
	case "epic":
		return entities.RarityEpic
	case "ultra":
		return entities.RarityUltra
	case "legendary":
		return entities.RarityLegendary
	}
	return entities.Rarity(s)
}

func eurToCents(eur float64) int64 {
	return int64(math.Round(eur * 100))
}
