package i18n

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Service translates operator-facing messages. Message keys are the
// English phrases themselves, so a missing locale file or untranslated
// key degrades to English.
type Service struct {
	logger  *slog.Logger
	catalog catalog.Catalog
	matcher language.Matcher
}

// NewService loads translations from localesDir (one JSON object per
// language, named like ru.json). A missing directory is not an error:
// the service then serves English only.
func NewService(localesDir string, logger *slog.Logger) (*Service, error) {
	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	supported := []language.Tag{language.English}

	files, err := os.ReadDir(localesDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		logger.Warn("locales directory not found, serving English only", "dir", localesDir)
		files = nil
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		langTag, err := language.Parse(strings.TrimSuffix(file.Name(), ".json"))
		if err != nil {
			logger.Warn("failed to parse language tag from file name", "file", file.Name(), "error", err)
			continue
		}

		data, err := os.ReadFile(filepath.Join(localesDir, file.Name()))
		if err != nil {
			logger.Error("failed to read translation file", "file", file.Name(), "error", err)
			continue
		}

		translations := make(map[string]string)
		if err := json.Unmarshal(data, &translations); err != nil {
			logger.Error("failed to unmarshal translation file", "file", file.Name(), "error", err)
			continue
		}

		for key, value := range translations {
			if err := builder.SetString(langTag, key, value); err != nil {
				logger.Error("failed to set string for language", "lang", langTag, "key", key, "error", err)
			}
		}
		if langTag != language.English {
			supported = append(supported, langTag)
		}
		logger.Info("loaded translations", "language", langTag.String(), "count", len(translations))
	}

	return &Service{
		logger:  logger,
		catalog: builder,
		matcher: language.NewMatcher(supported),
	}, nil
}

// Sprintf formats and translates a message for the best language match
// of the Accept-Language header.
func (s *Service) Sprintf(acceptLanguage, key string, args ...interface{}) string {
	tag := language.English
	if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil {
		tag, _, _ = s.matcher.Match(tags...)
	}
	printer := message.NewPrinter(tag, message.Catalog(s.catalog))
	return printer.Sprintf(key, args...)
}
