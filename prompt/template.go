package prompt

import "regexp"

// parsedTemplate splits a custom message template like "(feat): message" or
// "[JIRA-123] feat: message" at the first ":" or "-" separator.
type parsedTemplate struct {
	Prefix    string
	Separator string
	Example   string
}

var templatePattern = regexp.MustCompile(`^(.*?)(\s*[:\-]\s*)(.*)$`)

func parseTemplate(template string) parsedTemplate {
	if m := templatePattern.FindStringSubmatch(template); m != nil {
		return parsedTemplate{
			Prefix:    m[1],
			Separator: m[2],
			Example:   m[3],
		}
	}

	return parsedTemplate{
		Separator: ": ",
		Example:   template,
	}
}
