package listing

import "time"

// InvalidDate is shown for release dates that cannot be parsed
const InvalidDate = "Invalid date"

const releaseDateLayout = "Jan 02 2006"

var releaseDateInputs = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// Config carries the image locations used to render posters
type Config struct {
	PosterBaseURL  string
	FallbackPoster string
}

// PosterURL joins the CDN prefix and path, or returns the fallback when path is absent
func (c Config) PosterURL(path *string) string {
	if path == nil {
		return c.FallbackPoster
	}
	return c.PosterBaseURL + *path
}

// FormatReleaseDate renders a TMDB date such as 2024-01-05 as "Jan 05 2024"
func FormatReleaseDate(date string) string {
	for _, layout := range releaseDateInputs {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Format(releaseDateLayout)
		}
	}
	return InvalidDate
}
