package gifsteg

import (
	"regexp"
	"strings"
)

// SearchFlags returns the first match of pattern on each line of text.
func SearchFlags(text, pattern string) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	var flags []string
	for _, line := range strings.Split(text, "\n") {
		if m := re.FindString(line); m != "" {
			flags = append(flags, m)
		}
	}
	return flags, nil
}
