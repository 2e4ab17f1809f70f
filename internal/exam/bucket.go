package exam

import (
	"sort"
	"strconv"
	"strings"

	appErr "mockct/pkg/errors"
)

// Bucket asks for Count problems from a tier range.
type Bucket struct {
	Name  string `json:"name"`
	Range string `json:"range"`
	Count int    `json:"count"`
}

// Tiers parses the bucket range.
func (b Bucket) Tiers() (TierRange, error) {
	return ParseTierRange(b.Range)
}

// DefaultBuckets are the five shared difficulty buckets, ordered easiest first.
var DefaultBuckets = []Bucket{
	{Name: "veasy", Range: "B5~B3", Count: 1},
	{Name: "easy", Range: "B2~S4", Count: 1},
	{Name: "mid", Range: "S3~G5", Count: 1},
	{Name: "hard", Range: "G4~P5", Count: 1},
	{Name: "insane", Range: "P4~D5", Count: 1},
}

var presets = map[string][]string{
	"easy": {"veasy", "easy", "mid"},
	"mid":  {"easy", "mid", "hard"},
	"hard": {"mid", "hard", "insane"},
}

// DefaultPreset is used when no difficulty is given.
const DefaultPreset = "mid"

// Presets lists the difficulty preset names.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultBucket looks up one of the shared buckets by name.
func DefaultBucket(name string) (Bucket, bool) {
	for _, b := range DefaultBuckets {
		if b.Name == name {
			return b, true
		}
	}
	return Bucket{}, false
}

// PresetBuckets resolves a difficulty preset to its buckets.
func PresetBuckets(preset string) ([]Bucket, error) {
	names, ok := presets[strings.ToLower(strings.TrimSpace(preset))]
	if !ok {
		return nil, appErr.Newf(appErr.InvalidBucket, "unknown difficulty %q, want one of %s", preset, strings.Join(Presets(), "/"))
	}
	out := make([]Bucket, 0, len(names))
	for _, name := range names {
		b, _ := DefaultBucket(name)
		out = append(out, b)
	}
	return out, nil
}

// ParseBucket parses "name:RANGE:COUNT", e.g. "easy:B4~S3:1".
func ParseBucket(s string) (Bucket, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return Bucket{}, appErr.Newf(appErr.InvalidBucket, "bucket %q: want name:RANGE:COUNT", s)
	}
	name := strings.TrimSpace(parts[0])
	rng := strings.TrimSpace(parts[1])
	if name == "" {
		return Bucket{}, appErr.Newf(appErr.InvalidBucket, "bucket %q: empty name", s)
	}
	count, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return Bucket{}, appErr.Wrapf(err, appErr.InvalidBucket, "bucket %q: count must be an integer", s)
	}
	if count <= 0 {
		return Bucket{}, appErr.Newf(appErr.InvalidBucket, "bucket %q: count must be at least 1", s)
	}
	if _, err := ParseTierRange(rng); err != nil {
		return Bucket{}, err
	}
	return Bucket{Name: name, Range: rng, Count: count}, nil
}
