package conf

import "strings"

// newDotUnderscoreReplacer maps dotted configuration keys onto the
// underscore-separated environment variable names of §6.6
// (e.g. "gdalsource.datasets.path" <-> "MAPPING_GDALSOURCE_DATASETS_PATH").
func newDotUnderscoreReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}
