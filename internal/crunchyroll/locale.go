package crunchyroll

import "strings"

// supportedLocales is ordered; the first entry is the fallback for
// unrecognized regions.
var supportedLocales = []string{
	"en-US",
	"en-GB",
	"es-419",
	"es-ES",
	"pt-BR",
	"pt-PT",
	"fr-FR",
	"de-DE",
	"ar-SA",
	"it-IT",
	"ru-RU",
}

// Locale derives the API locale tag from the region code embedded in the
// session's signing bucket (the second /-segment, e.g. "/US/cr"), matching
// it against the trailing segment of each supported locale.
func (m *Manager) Locale() string {
	return localeForBucket(m.sess.Token.Bucket)
}

func localeForBucket(bucket string) string {
	parts := strings.Split(bucket, "/")
	if len(parts) < 2 {
		return supportedLocales[0]
	}
	region := parts[1]

	for _, locale := range supportedLocales {
		segs := strings.Split(locale, "-")
		if segs[len(segs)-1] == region {
			return locale
		}
	}
	return supportedLocales[0]
}
