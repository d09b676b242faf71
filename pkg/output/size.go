package output

import (
	"fmt"
	"strconv"
)

// Size is a byte count with human-readable parsing and printing, used
// for capture caps. It implements flag.Value and toml text decoding.
type Size uint64

func (s Size) String() string {
	t := uint64(s)
	switch {
	case t < 1<<10:
		return fmt.Sprintf("%d B", t)
	case t < 1<<20:
		return fmt.Sprintf("%.1f KiB", float64(t)/float64(1<<10))
	case t < 1<<30:
		return fmt.Sprintf("%.1f MiB", float64(t)/float64(1<<20))
	default:
		return fmt.Sprintf("%.1f GiB", float64(t)/float64(1<<30))
	}
}

// Set parses a size value like "64", "4k", "16m" or "1g", with an
// optional trailing "b" / "B".
func (s *Size) Set(str string) error {
	if str == "" {
		return fmt.Errorf("size: empty value")
	}
	switch str[len(str)-1] {
	case 'b', 'B':
		str = str[:len(str)-1]
	}
	if str == "" {
		return fmt.Errorf("size: no digits")
	}

	factor := 0
	switch str[len(str)-1] {
	case 'k', 'K':
		factor = 10
		str = str[:len(str)-1]
	case 'm', 'M':
		factor = 20
		str = str[:len(str)-1]
	case 'g', 'G':
		factor = 30
		str = str[:len(str)-1]
	}

	t, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return err
	}
	*s = Size(t << factor)
	return nil
}

// UnmarshalText lets Size fields decode directly from config files.
func (s *Size) UnmarshalText(text []byte) error {
	return s.Set(string(text))
}

// Byte returns the size in bytes.
func (s Size) Byte() uint64 {
	return uint64(s)
}
