package enrich

import (
	"regexp"
	"strconv"
	"strings"
)

// EmploymentType classifies the contract kind of a posting.
type EmploymentType string

// Employment types, matching schema.org's vocabulary.
const (
	FullTime   EmploymentType = "FULL_TIME"
	PartTime   EmploymentType = "PART_TIME"
	Contractor EmploymentType = "CONTRACTOR"
	Intern     EmploymentType = "INTERN"
	Temporary  EmploymentType = "TEMPORARY"
)

// Salary is a detected pay range. Min equals Max when only a floor was
// stated.
type Salary struct {
	Currency string  `json:"currency"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Unit     string  `json:"unit"`
}

// Location is a job place. Country is always set; City only when a known
// city name appears in the text.
type Location struct {
	Country string `json:"country"`
	City    string `json:"city,omitempty"`
}

// Metadata carries everything inferred from a posting's free text.
type Metadata struct {
	EmploymentType               EmploymentType `json:"employment_type"`
	IsRemote                     bool           `json:"is_remote"`
	Salary                       *Salary        `json:"salary,omitempty"`
	ExperienceRequirements       string         `json:"experience_requirements,omitempty"`
	ExperienceInPlaceOfEducation bool           `json:"experience_in_place_of_education"`
	Locations                    []Location     `json:"locations"`
}

// Employment classification is first-match in priority order; full-time is
// the default when nothing matches.
var employmentRules = []struct {
	re  *regexp.Regexp
	typ EmploymentType
}{
	{regexp.MustCompile(`(?i)part[\s-]?time|meio\s+per[íi]odo|meio\s+turno`), PartTime},
	{regexp.MustCompile(`(?i)contractor|contrato\s+pj|\bpj\b|freelan|prestador\s+de\s+servi[çc]o`), Contractor},
	{regexp.MustCompile(`(?i)\bintern(ship)?\b|est[áa]gio|estagi[áa]ri[oa]|trainee`), Intern},
	{regexp.MustCompile(`(?i)tempor[áa]ri[oa]|temporary|seasonal|safra`), Temporary},
}

var remoteRe = regexp.MustCompile(`(?i)\bremot[oa]\b|\bremote\b|home\s*office|teletrabalho|trabalho\s+[àa]\s+dist[âa]ncia`)

var (
	currencyRules = []struct {
		re   *regexp.Regexp
		code string
	}{
		{regexp.MustCompile(`R\$|(?i)\breais\b|\bBRL\b`), "BRL"},
		{regexp.MustCompile(`(?i)US\$|\bUSD\b|\bdollars?\b`), "USD"},
		{regexp.MustCompile(`€|(?i)\bEUR\b|\beuros?\b`), "EUR"},
		{regexp.MustCompile(`£|(?i)\bGBP\b`), "GBP"},
		{regexp.MustCompile(`\$`), "USD"},
	}
	salaryRangeRe = regexp.MustCompile(`(?i)(?:R\$|US\$|\$|€|£)?\s*([\d][\d.,]*)\s*(?:-|–|a|at[ée]|to)\s*(?:R\$|US\$|\$|€|£)?\s*([\d][\d.,]*)`)
	salaryFromRe  = regexp.MustCompile(`(?i)(?:a\s+partir\s+de|desde|from)\s*(?:R\$|US\$|\$|€|£)?\s*([\d][\d.,]*)`)
	salaryHourRe  = regexp.MustCompile(`(?i)por\s+hora|/\s*h(?:ora)?\b|per\s+hour|hourly`)
	salaryYearRe  = regexp.MustCompile(`(?i)por\s+ano|anual|per\s+year|annual|/\s*ano`)
)

var (
	experienceYearsRe = regexp.MustCompile(`(?i)(\d+)\+?\s*(?:anos?|years?)\s+(?:de\s+)?experi[êe]nc`)
	experienceReqRe   = regexp.MustCompile(`(?i)experi[êe]ncia\s+(?:necess[áa]ria|obrigat[óo]ria|exigida|comprovada)|experience\s+required|com\s+experi[êe]ncia`)
	expOverEduRe      = regexp.MustCompile(`(?i)experi[êe]ncia\s+(?:no\s+lugar\s+de|em\s+vez\s+de|substitui)\s+(?:a\s+)?(?:forma[çc][ãa]o|educa[çc][ãa]o|diploma)|sem\s+(?:necessidade\s+de\s+)?(?:diploma|forma[çc][ãa]o|escolaridade)`)
)

// countryBySuffix maps deployment-site domain suffixes to ISO country
// codes. Longest suffix wins.
var countryBySuffix = []struct {
	suffix  string
	country string
}{
	{".com.br", "BR"},
	{".co.uk", "GB"},
	{".br", "BR"},
	{".pt", "PT"},
	{".es", "ES"},
	{".mx", "MX"},
	{".ar", "AR"},
	{".de", "DE"},
	{".fr", "FR"},
	{".us", "US"},
}

// cityLexicon lists city names recognized in posting text, checked in
// order so multi-word names win over substrings.
var cityLexicon = []struct {
	needle string
	city   string
}{
	{"são paulo", "São Paulo"},
	{"sao paulo", "São Paulo"},
	{"rio de janeiro", "Rio de Janeiro"},
	{"belo horizonte", "Belo Horizonte"},
	{"porto alegre", "Porto Alegre"},
	{"curitiba", "Curitiba"},
	{"salvador", "Salvador"},
	{"fortaleza", "Fortaleza"},
	{"recife", "Recife"},
	{"brasília", "Brasília"},
	{"brasilia", "Brasília"},
	{"goiânia", "Goiânia"},
	{"goiania", "Goiânia"},
	{"campinas", "Campinas"},
	{"manaus", "Manaus"},
	{"belém", "Belém"},
	{"guarulhos", "Guarulhos"},
}

// Inferencer derives structured metadata from posting free text.
type Inferencer struct {
	siteURL         string
	fallbackCountry string
}

// NewInferencer builds an Inferencer. siteURL decides the default country
// via its domain suffix; fallbackCountry applies when no suffix matches.
func NewInferencer(siteURL, fallbackCountry string) *Inferencer {
	if fallbackCountry == "" {
		fallbackCountry = "BR"
	}
	return &Inferencer{siteURL: siteURL, fallbackCountry: fallbackCountry}
}

// Infer runs every rule table over title + description.
func (in *Inferencer) Infer(title, description string) Metadata {
	text := title + "\n" + HTMLToText(description)
	meta := Metadata{
		EmploymentType: in.employmentType(text),
		IsRemote:       remoteRe.MatchString(text),
		Salary:         in.salary(text),
		Locations:      in.InferJobLocations(text),
	}
	meta.ExperienceRequirements = in.experience(text)
	meta.ExperienceInPlaceOfEducation = expOverEduRe.MatchString(text)
	return meta
}

func (in *Inferencer) employmentType(text string) EmploymentType {
	for _, rule := range employmentRules {
		if rule.re.MatchString(text) {
			return rule.typ
		}
	}
	return FullTime
}

func (in *Inferencer) salary(text string) *Salary {
	currency := ""
	for _, rule := range currencyRules {
		if rule.re.MatchString(text) {
			currency = rule.code
			break
		}
	}
	if currency == "" {
		return nil
	}

	unit := "MONTH"
	if salaryHourRe.MatchString(text) {
		unit = "HOUR"
	} else if salaryYearRe.MatchString(text) {
		unit = "YEAR"
	}

	if m := salaryRangeRe.FindStringSubmatch(text); m != nil {
		lo, loOK := parseAmount(m[1])
		hi, hiOK := parseAmount(m[2])
		if loOK && hiOK && lo > 0 {
			return &Salary{Currency: currency, Min: lo, Max: hi, Unit: unit}
		}
	}
	if m := salaryFromRe.FindStringSubmatch(text); m != nil {
		if v, ok := parseAmount(m[1]); ok && v > 0 {
			return &Salary{Currency: currency, Min: v, Max: v, Unit: unit}
		}
	}
	return nil
}

// parseAmount strips digit-grouping punctuation before conversion. This
// conflates thousand separators with decimal points across locales; the
// lossy behavior is intentional and covered by tests.
func parseAmount(raw string) (float64, bool) {
	cleaned := strings.NewReplacer(".", "", ",", "").Replace(raw)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (in *Inferencer) experience(text string) string {
	if m := experienceYearsRe.FindStringSubmatch(text); m != nil {
		return m[1] + " anos de experiência"
	}
	if experienceReqRe.MatchString(text) {
		return "experiência necessária"
	}
	return ""
}

// InferJobLocations always returns at least one location: the country
// implied by the site domain, refined to a city when one is recognized.
func (in *Inferencer) InferJobLocations(text string) []Location {
	country := in.fallbackCountry
	host := strings.ToLower(in.siteURL)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	if i := strings.IndexAny(host, "/?"); i >= 0 {
		host = host[:i]
	}
	for _, entry := range countryBySuffix {
		if strings.HasSuffix(host, entry.suffix) {
			country = entry.country
			break
		}
	}

	lower := strings.ToLower(text)
	for _, entry := range cityLexicon {
		if strings.Contains(lower, entry.needle) {
			return []Location{{Country: country, City: entry.city}}
		}
	}
	return []Location{{Country: country}}
}
