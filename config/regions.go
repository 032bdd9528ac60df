package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/piyushdan-dataslush/bms-analytics/internal/models"
	"gopkg.in/yaml.v3"
)

// RegionConfig is the read-only City -> Region mapping loaded at startup.
type RegionConfig struct {
	regions map[string]models.Region
}

type regionFile struct {
	Regions map[string]struct {
		Code string `yaml:"code"`
		Slug string `yaml:"slug"`
		Lat  string `yaml:"lat"`
		Lon  string `yaml:"lon"`
	} `yaml:"regions"`
}

func DefaultRegions() RegionConfig {
	return NewRegionConfig([]models.Region{
		{City: "AHMEDABAD", Code: "AHD", Slug: "ahd", Lat: "23.039568", Lon: "72.566005"},
		{City: "MUMBAI", Code: "MUMBAI", Slug: "mumbai", Lat: "19.0760", Lon: "72.8777"},
		{City: "VADODARA", Code: "VADO", Slug: "vad", Lat: "22.3072", Lon: "73.1812"},
		{City: "SURAT", Code: "SURT", Slug: "surt", Lat: "21.1702", Lon: "72.8311"},
		{City: "RAJKOT", Code: "RAJK", Slug: "rajk", Lat: "22.3039", Lon: "70.8022"},
	})
}

func NewRegionConfig(regions []models.Region) RegionConfig {
	m := make(map[string]models.Region, len(regions))
	for _, r := range regions {
		r.City = strings.ToUpper(strings.TrimSpace(r.City))
		m[r.City] = r
	}
	return RegionConfig{regions: m}
}

// LoadRegions reads a YAML region file. An empty path yields the defaults.
func LoadRegions(path string) (RegionConfig, error) {
	if path == "" {
		return DefaultRegions(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return RegionConfig{}, err
	}

	return ParseRegions(data)
}

func ParseRegions(data []byte) (RegionConfig, error) {
	var f regionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return RegionConfig{}, fmt.Errorf("parse region file: %w", err)
	}

	regions := make([]models.Region, 0, len(f.Regions))
	for city, r := range f.Regions {
		if r.Code == "" {
			return RegionConfig{}, fmt.Errorf("region %s: code is required", city)
		}
		regions = append(regions, models.Region{
			City: city,
			Code: r.Code,
			Slug: r.Slug,
			Lat:  r.Lat,
			Lon:  r.Lon,
		})
	}

	return NewRegionConfig(regions), nil
}

func (c RegionConfig) Lookup(city string) (models.Region, bool) {
	r, ok := c.regions[strings.ToUpper(strings.TrimSpace(city))]
	return r, ok
}

// Cities returns the configured city names in a stable order.
func (c RegionConfig) Cities() []string {
	cities := make([]string, 0, len(c.regions))
	for city := range c.regions {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	return cities
}

func (c RegionConfig) All() []models.Region {
	out := make([]models.Region, 0, len(c.regions))
	for _, city := range c.Cities() {
		out = append(out, c.regions[city])
	}
	return out
}
