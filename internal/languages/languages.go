package languages

import (
	"strings"

	"quillium-client/internal/models"
)

const DefaultName = "English"

var groups = []models.LanguageGroup{
	{Name: "English", Languages: []models.Language{
		{Code: "en", Name: "English", NativeName: "English", Flag: "🇬🇧"},
	}},
	{Name: "European Languages", Languages: []models.Language{
		{Code: "es", Name: "Spanish", NativeName: "Español", Flag: "🇪🇸"},
		{Code: "fr", Name: "French", NativeName: "Français", Flag: "🇫🇷"},
		{Code: "de", Name: "German", NativeName: "Deutsch", Flag: "🇩🇪"},
		{Code: "it", Name: "Italian", NativeName: "Italiano", Flag: "🇮🇹"},
		{Code: "pt", Name: "Portuguese", NativeName: "Português", Flag: "🇵🇹"},
		{Code: "ru", Name: "Russian", NativeName: "Русский", Flag: "🇷🇺"},
		{Code: "nl", Name: "Dutch", NativeName: "Nederlands", Flag: "🇳🇱"},
		{Code: "pl", Name: "Polish", NativeName: "Polski", Flag: "🇵🇱"},
		{Code: "uk", Name: "Ukrainian", NativeName: "Українська", Flag: "🇺🇦"},
	}},
	{Name: "Asian Languages", Languages: []models.Language{
		{Code: "zh", Name: "Chinese", NativeName: "中文", Flag: "🇨🇳"},
		{Code: "ja", Name: "Japanese", NativeName: "日本語", Flag: "🇯🇵"},
		{Code: "ko", Name: "Korean", NativeName: "한국어", Flag: "🇰🇷"},
		{Code: "ar", Name: "Arabic", NativeName: "العربية", Flag: "🇸🇦"},
		{Code: "hi", Name: "Hindi", NativeName: "हिन्दी", Flag: "🇮🇳"},
		{Code: "th", Name: "Thai", NativeName: "ไทย", Flag: "🇹🇭"},
		{Code: "vi", Name: "Vietnamese", NativeName: "Tiếng Việt", Flag: "🇻🇳"},
		{Code: "id", Name: "Indonesian", NativeName: "Bahasa Indonesia", Flag: "🇮🇩"},
		{Code: "ms", Name: "Malay", NativeName: "Bahasa Melayu", Flag: "🇲🇾"},
		{Code: "tl", Name: "Filipino", NativeName: "Filipino", Flag: "🇵🇭"},
	}},
	{Name: "Other Languages", Languages: []models.Language{
		{Code: "tr", Name: "Turkish", NativeName: "Türkçe", Flag: "🇹🇷"},
		{Code: "fa", Name: "Persian", NativeName: "فارسی", Flag: "🇮🇷"},
		{Code: "he", Name: "Hebrew", NativeName: "עברית", Flag: "🇮🇱"},
		{Code: "el", Name: "Greek", NativeName: "Ελληνικά", Flag: "🇬🇷"},
		{Code: "cs", Name: "Czech", NativeName: "Čeština", Flag: "🇨🇿"},
		{Code: "sv", Name: "Swedish", NativeName: "Svenska", Flag: "🇸🇪"},
		{Code: "no", Name: "Norwegian", NativeName: "Norsk", Flag: "🇳🇴"},
		{Code: "da", Name: "Danish", NativeName: "Dansk", Flag: "🇩🇰"},
		{Code: "fi", Name: "Finnish", NativeName: "Suomi", Flag: "🇫🇮"},
		{Code: "hu", Name: "Hungarian", NativeName: "Magyar", Flag: "🇭🇺"},
	}},
}

// Groups returns the catalog grouped for display. The result is a copy.
func Groups() []models.LanguageGroup {
	out := make([]models.LanguageGroup, len(groups))
	for i, g := range groups {
		out[i] = models.LanguageGroup{Name: g.Name, Languages: append([]models.Language(nil), g.Languages...)}
	}
	return out
}

func All() []models.Language {
	var out []models.Language
	for _, g := range groups {
		out = append(out, g.Languages...)
	}
	return out
}

// Lookup finds a language by display name or code, case-insensitively.
func Lookup(nameOrCode string) (models.Language, bool) {
	s := strings.TrimSpace(nameOrCode)
	for _, g := range groups {
		for _, l := range g.Languages {
			if strings.EqualFold(l.Name, s) || strings.EqualFold(l.Code, s) {
				return l, true
			}
		}
	}
	return models.Language{}, false
}

func Default() models.Language {
	l, _ := Lookup(DefaultName)
	return l
}
