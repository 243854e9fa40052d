package loader

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/fuelstat/internal/model"
)

// RegionMap resolves neighbourhood names to regionais.
type RegionMap struct {
	byNeighborhood map[string]string
}

type regionFile struct {
	Regions map[string][]string `yaml:"regions"`
}

// LoadRegionMap reads a YAML mapping file. Missing file is not an error.
//
//	regions:
//	  Pampulha: [Ouro Preto, Castelo]
//	  Centro-Sul: [Savassi, Lourdes]
func LoadRegionMap(path string) (RegionMap, error) {
	if path == "" {
		return RegionMap{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RegionMap{}, nil
		}
		return RegionMap{}, fmt.Errorf("failed to read region map: %w", err)
	}
	return ParseRegionMap(data)
}

// ParseRegionMap decodes a YAML mapping. Every key must be a known regional.
func ParseRegionMap(data []byte) (RegionMap, error) {
	var file regionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return RegionMap{}, fmt.Errorf("failed to decode region map: %w", err)
	}
	m := RegionMap{byNeighborhood: make(map[string]string)}
	regions := make([]string, 0, len(file.Regions))
	for region := range file.Regions {
		regions = append(regions, region)
	}
	sort.Strings(regions)
	for _, region := range regions {
		canonical, ok := canonicalRegion(region)
		if !ok {
			return RegionMap{}, fmt.Errorf("unknown region %q in region map", region)
		}
		for _, n := range file.Regions[region] {
			key := foldKey(n)
			if key == "" {
				continue
			}
			if prev, ok := m.byNeighborhood[key]; ok && prev != canonical {
				return RegionMap{}, fmt.Errorf("neighbourhood %q mapped to both %s and %s", n, prev, canonical)
			}
			m.byNeighborhood[key] = canonical
		}
	}
	return m, nil
}

// Len returns the number of mapped neighbourhoods.
func (m RegionMap) Len() int {
	return len(m.byNeighborhood)
}

// Lookup returns the regional for a neighbourhood, or the unidentified sentinel.
func (m RegionMap) Lookup(neighborhood string) string {
	if region, ok := m.byNeighborhood[foldKey(neighborhood)]; ok {
		return region
	}
	return model.RegionUnidentified
}

// canonicalRegion matches name against the fixed regionais ignoring case and accents.
func canonicalRegion(name string) (string, bool) {
	if model.KnownRegion(name) {
		return name, true
	}
	key := foldKey(name)
	if key == "" {
		return "", false
	}
	for _, r := range model.Regions {
		if foldKey(r) == key {
			return r, true
		}
	}
	return "", false
}
