package pricing

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadRateBook reads a YAML rate book. Tiers missing from the file keep their default rates;
// discounts are taken from the file when the section is present.
//
//	discounts:
//	  friend_percent: 50
//	tiers:
//	  NORMAL:
//	    text: {short: 10, medium: 16, long_per_char: 2}
//	    voice_per_unit: 20
//	    video_per_unit: 30
func LoadRateBook(r io.Reader) (RateBook, error) {
	var raw struct {
		Tiers     map[Tier]RateTable `yaml:"tiers"`
		Discounts *Discounts         `yaml:"discounts"`
	}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return RateBook{}, fmt.Errorf("parsing rate book: %w", err)
	}

	book := DefaultRateBook()
	for tier, rt := range raw.Tiers {
		book.Tiers[tier] = rt
	}
	if raw.Discounts != nil {
		book.Discounts = *raw.Discounts
	}
	if err := book.Validate(); err != nil {
		return RateBook{}, err
	}
	return book, nil
}

// LoadRateBookFile is LoadRateBook over a file; an empty path yields the defaults.
func LoadRateBookFile(path string) (RateBook, error) {
	if path == "" {
		return DefaultRateBook(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return RateBook{}, fmt.Errorf("reading rate book %s: %w", path, err)
	}
	defer f.Close()
	return LoadRateBook(f)
}
