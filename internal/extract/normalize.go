package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// CVCaptionPhrase identifies the caption that carries the applicant count.
const CVCaptionPhrase = "CVs inscritos en el proceso:"

var (
	digitRun         = regexp.MustCompile(`\d+`)
	salaryNoise      = strings.NewReplacer(".", "", ",", "", "€", "")
	experienceFolder = strings.NewReplacer("–", "-", "—", "-")
)

// ExperienceRule maps a lowercase phrase to a number of years.
type ExperienceRule struct {
	Phrase string
	Years  int
}

// ExperienceRules is evaluated in order; the first phrase contained in the
// input wins. Ranges map to their midpoint.
var ExperienceRules = []ExperienceRule{
	{Phrase: "más de 10 años", Years: 10},
	{Phrase: "más de 5 años", Years: 5},
	{Phrase: "3-5 años", Years: 4},
	{Phrase: "menos de 1 año", Years: 0},
	{Phrase: "menos de un año", Years: 0},
	{Phrase: "sin experiencia", Years: 0},
}

// ConvertExperience turns the board's experience text into whole years. It
// falls back to the first number in the text and reports false when neither a
// rule nor a number matches.
func ConvertExperience(text string) (int, bool) {
	return convertExperience(text, ExperienceRules)
}

func convertExperience(text string, rules []ExperienceRule) (int, bool) {
	if strings.TrimSpace(text) == "" {
		return 0, false
	}
	lower := experienceFolder.Replace(strings.ToLower(text))
	for _, rule := range rules {
		if strings.Contains(lower, rule.Phrase) {
			return rule.Years, true
		}
	}
	return firstInt(lower)
}

// ParseSalary reads an annual range such as "30.000€ - 45.000€". Anything
// other than exactly two numbers is ambiguous and reported as absent.
func ParseSalary(text string) (minSalary, maxSalary int, ok bool) {
	runs := digitRun.FindAllString(salaryNoise.Replace(text), -1)
	if len(runs) != 2 {
		return 0, 0, false
	}
	lo, err := strconv.Atoi(runs[0])
	if err != nil {
		return 0, 0, false
	}
	hi, err := strconv.Atoi(runs[1])
	if err != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

// CVCount returns the digits of the first caption containing CVCaptionPhrase,
// or "" when no caption matches or the matching caption has no digits.
func CVCount(captions []string) string {
	for _, caption := range captions {
		if !strings.Contains(caption, CVCaptionPhrase) {
			continue
		}
		return digitRun.FindString(caption)
	}
	return ""
}

func firstInt(text string) (int, bool) {
	run := digitRun.FindString(text)
	if run == "" {
		return 0, false
	}
	n, err := strconv.Atoi(run)
	if err != nil {
		return 0, false
	}
	return n, true
}
