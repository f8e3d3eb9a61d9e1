package i18n

import (
	"embed"
	"encoding/json"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	bundle   *goi18n.Bundle
	initOnce sync.Once
)

// Init builds the process bundle from the embedded locale files.
func Init() {
	initOnce.Do(func() {
		b := goi18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("json", json.Unmarshal)
		for _, path := range []string{"locales/active.en.json", "locales/active.es.json"} {
			if _, err := b.LoadMessageFileFS(localeFS, path); err != nil {
				panic(err)
			}
		}
		bundle = b
	})
}

// Load adds an extra message file from disk, e.g. an operator override.
func Load(path string) error {
	Init()
	_, err := bundle.LoadMessageFile(path)
	return err
}

// Translate renders messageID for the languages in acceptLanguage (an
// Accept-Language header value). Unknown ids fall back to the id itself.
func Translate(acceptLanguage, messageID string, data map[string]any) string {
	Init()
	localizer := goi18n.NewLocalizer(bundle, acceptLanguage)
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID
	}
	return msg
}
