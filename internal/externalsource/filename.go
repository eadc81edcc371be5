package externalsource

import (
	"strings"

	"github.com/mappingcore/geodb/internal/apperr"
)

const timeStringPlaceholder = "%%%TIME_STRING%%%"

// ValidateFileNameTemplate rejects templates containing more than one
// occurrence of the time placeholder: the original's single fileName.find
// + replace silently only substitutes the first occurrence, leaving any
// later ones in the resulting path, so a template with two placeholders is
// refused here instead of being miscompiled at query time (Design Note
// open question, resolved).
func ValidateFileNameTemplate(template string) error {
	first := strings.Index(template, timeStringPlaceholder)
	if first < 0 {
		return nil
	}
	if strings.Contains(template[first+len(timeStringPlaceholder):], timeStringPlaceholder) {
		return apperr.New(apperr.ArgumentError, "file_name template contains more than one %s placeholder", timeStringPlaceholder)
	}
	return nil
}

// ExpandFileNameTemplate substitutes the first occurrence of the time
// placeholder with timeString, matching fileName.replace(pos, len, ...) for
// a template with no more than one occurrence.
func ExpandFileNameTemplate(template, timeString string) string {
	pos := strings.Index(template, timeStringPlaceholder)
	if pos < 0 {
		return template
	}
	return template[:pos] + timeString + template[pos+len(timeStringPlaceholder):]
}
