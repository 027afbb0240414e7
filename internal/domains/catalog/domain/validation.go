package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	maxNameLength      = 255
	maxTracklistLength = 2000
	maxTrackLength     = 100
	maxLPTracks        = 30
	maxRuntimeLength   = 50
	maxSubtitleLength  = 500
	maxRuntimeMinutes  = 24 * 60
)

var (
	unsafeNameChars = regexp.MustCompile(`[<>"'&]`)
	hasLetter       = regexp.MustCompile(`[a-zA-Z]`)
	languagePattern = regexp.MustCompile(`^[a-zA-Z\s,;/\-]+$`)
	languageSplit   = regexp.MustCompile(`[,;/]`)
	runtimePattern  = regexp.MustCompile(`(?i)^(\d{1,3}(h|hr|hour|hours)\s*(\d{1,2}(m|min|minute|minutes))?|\d{1,3}\s*(m|min|minute|minutes))$`)
	nonDigits       = regexp.MustCompile(`[^0-9]`)

	validDiscTypes = []string{"DVD", "BLU-RAY", "BLURAY", "HD-DVD", "HDDVD"}
)

type variantValidator func(p *Product, now time.Time) error

// validators dispatches variant validation by discriminant.
var validators = map[Kind]variantValidator{
	KindBook: validateBook,
	KindCD:   discValidator("CD", time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC), 0),
	KindLP:   discValidator("LP", time.Date(1890, time.January, 1, 0, 0, 0, 0, time.UTC), maxLPTracks),
	KindDVD:  validateDVD,
}

func validateBase(p *Product) error {
	switch {
	case blank(p.Title):
		return invalid("product title must not be empty")
	case blank(p.ImageURL):
		return invalid("product image URL must not be empty")
	case blank(p.Dimensions):
		return invalid("product dimensions must not be empty")
	case p.WarehouseEntryDate.IsZero():
		return invalid("warehouse entry date must not be empty")
	case blank(p.Category):
		return invalid("product category must not be empty")
	case blank(p.Barcode):
		return invalid("product barcode must not be empty")
	case !p.Value.IsPositive():
		return invalid("product value must be greater than zero")
	case !p.CurrentPrice.IsPositive():
		return invalid("product price must be greater than zero")
	case p.Weight <= 0:
		return invalid("product weight must be greater than zero")
	case p.Quantity < 0:
		return invalid("product quantity cannot be negative")
	}
	return nil
}

func validateBook(p *Product, _ time.Time) error {
	b := p.Book
	if b == nil {
		return invalid("book attributes are required")
	}
	switch {
	case blank(b.Author):
		return invalid("book author is required")
	case blank(b.CoverType):
		return invalid("book cover type is required")
	case blank(b.Publisher):
		return invalid("book publisher is required")
	case b.PublicationDate == nil || b.PublicationDate.IsZero():
		return invalid("book publication date is required")
	case blank(b.Language):
		return invalid("book language is required")
	case b.Pages <= 0:
		return invalid("book must have positive number of pages")
	}
	return nil
}

func discValidator(label string, earliest time.Time, maxTracks int) variantValidator {
	return func(p *Product, now time.Time) error {
		d := p.Disc
		if d == nil {
			return invalid("%s attributes are required", label)
		}
		switch {
		case blank(d.Artist):
			return invalid("%s artist is required", label)
		case blank(d.Album):
			return invalid("%s album is required", label)
		case blank(d.RecordLabel):
			return invalid("record label is required for %ss", label)
		}
		if d.ReleaseDate != nil {
			if err := checkReleaseDate(label, *d.ReleaseDate, earliest, now); err != nil {
				return err
			}
		}
		if strings.TrimSpace(d.Tracklist) != "" {
			if err := checkTracklist(d.Tracklist, maxTracks); err != nil {
				return err
			}
		}
		if err := checkName("artist name", d.Artist); err != nil {
			return err
		}
		if err := checkName("album name", d.Album); err != nil {
			return err
		}
		return checkName("record label name", d.RecordLabel)
	}
}

func validateDVD(p *Product, now time.Time) error {
	d := p.DVD
	if d == nil {
		return invalid("DVD attributes are required")
	}
	switch {
	case blank(d.Director):
		return invalid("DVD director is required")
	case blank(d.Studio):
		return invalid("DVD studio is required")
	case blank(d.Runtime):
		return invalid("DVD runtime is required")
	case blank(d.DiscType):
		return invalid("DVD disc type is required")
	case blank(d.Language):
		return invalid("DVD language is required")
	}
	if err := checkName("director name", d.Director); err != nil {
		return err
	}
	if !hasLetter.MatchString(d.Director) {
		return invalid("director name must contain at least one letter")
	}
	if err := checkName("studio name", d.Studio); err != nil {
		return err
	}
	if err := checkRuntime(d.Runtime); err != nil {
		return err
	}
	if !lo.Contains(validDiscTypes, strings.ToUpper(strings.TrimSpace(d.DiscType))) {
		return invalid("invalid disc type, valid types are: %s", strings.Join(validDiscTypes, ", "))
	}
	if err := checkLanguage(d.Language); err != nil {
		return err
	}
	if d.ReleaseDate != nil {
		earliest := time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC)
		if err := checkReleaseDate("DVD", *d.ReleaseDate, earliest, now); err != nil {
			return err
		}
	}
	if strings.TrimSpace(d.Subtitles) != "" {
		if len(d.Subtitles) > maxSubtitleLength {
			return invalid("subtitle information cannot exceed %d characters", maxSubtitleLength)
		}
		if !languagePattern.MatchString(d.Subtitles) {
			return invalid("subtitle contains invalid characters")
		}
	}
	return nil
}

func checkName(field, value string) error {
	if len(value) > maxNameLength {
		return invalid("%s cannot exceed %d characters", field, maxNameLength)
	}
	if unsafeNameChars.MatchString(value) {
		return invalid("%s contains invalid characters", field)
	}
	return nil
}

func checkReleaseDate(label string, date, earliest, now time.Time) error {
	if date.After(now) {
		return invalid("%s release date cannot be in the future", label)
	}
	if date.Before(earliest) {
		return invalid("%s release date cannot be before %d", label, earliest.Year())
	}
	return nil
}

func checkTracklist(tracklist string, maxTracks int) error {
	if len(tracklist) > maxTracklistLength {
		return invalid("tracklist is too long (maximum %d characters)", maxTracklistLength)
	}
	tracks := strings.Split(tracklist, ",")
	if maxTracks > 0 && len(tracks) > maxTracks {
		return invalid("LP cannot have more than %d tracks", maxTracks)
	}
	for _, track := range tracks {
		track = strings.TrimSpace(track)
		if track == "" {
			return invalid("tracklist cannot contain empty track names")
		}
		if len(track) > maxTrackLength {
			return invalid("individual track names cannot exceed %d characters", maxTrackLength)
		}
	}
	return nil
}

func checkRuntime(runtime string) error {
	if len(runtime) > maxRuntimeLength {
		return invalid("runtime cannot exceed %d characters", maxRuntimeLength)
	}
	if !runtimePattern.MatchString(strings.TrimSpace(runtime)) {
		return invalid("invalid runtime format, use formats like '2h 30m', '120 min', or '90 minutes'")
	}
	minutes, err := RuntimeMinutes(runtime)
	if err != nil {
		return invalid("invalid runtime format")
	}
	if minutes < 1 {
		return invalid("runtime must be at least 1 minute")
	}
	if minutes > maxRuntimeMinutes {
		return invalid("runtime cannot exceed 24 hours")
	}
	return nil
}

// RuntimeMinutes converts a runtime label such as "2h 30m" or "95 min" into minutes.
func RuntimeMinutes(runtime string) (int, error) {
	clean := strings.ToLower(strings.TrimSpace(runtime))
	if hours, rest, ok := strings.Cut(clean, "h"); ok {
		total, err := strconv.Atoi(strings.TrimSpace(hours))
		if err != nil {
			return 0, err
		}
		total *= 60
		if digits := nonDigits.ReplaceAllString(rest, ""); digits != "" {
			minutes, err := strconv.Atoi(digits)
			if err != nil {
				return 0, err
			}
			total += minutes
		}
		return total, nil
	}
	return strconv.Atoi(nonDigits.ReplaceAllString(clean, ""))
}

func checkLanguage(language string) error {
	if len(language) > maxNameLength {
		return invalid("language cannot exceed %d characters", maxNameLength)
	}
	if !languagePattern.MatchString(language) {
		return invalid("language contains invalid characters")
	}
	for _, part := range languageSplit.Split(language, -1) {
		part = strings.TrimSpace(part)
		if len(part) < 2 {
			return invalid("each language must be at least 2 characters long")
		}
		if len(part) > 50 {
			return invalid("individual language names cannot exceed 50 characters")
		}
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
