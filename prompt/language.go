package prompt

import (
	"fmt"
	"strings"
)

// languageNames maps short language codes to the names used in the language
// directive. Unknown codes are echoed back as-is.
var languageNames = map[string]string{
	"en":    "English",
	"es":    "Spanish",
	"fr":    "French",
	"de":    "German",
	"it":    "Italian",
	"pt":    "Portuguese",
	"ru":    "Russian",
	"ja":    "Japanese",
	"ko":    "Korean",
	"zh":    "Chinese",
	"zh-cn": "Simplified Chinese",
	"zh-tw": "Traditional Chinese",
	"ar":    "Arabic",
	"hi":    "Hindi",
	"nl":    "Dutch",
	"pl":    "Polish",
	"tr":    "Turkish",
	"sv":    "Swedish",
	"da":    "Danish",
	"no":    "Norwegian",
	"fi":    "Finnish",
}

// LanguageInstruction returns the directive appended to every prompt.
func LanguageInstruction(code string) string {
	name, found := languageNames[strings.ToLower(code)]
	if !found {
		name = code
	}

	return fmt.Sprintf("Write the commit message in %s.", name)
}
