package enrich

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInferEmploymentType(t *testing.T) {
	t.Parallel()

	in := NewInferencer("https://vagas.com.br", "")

	cases := []struct {
		text string
		want EmploymentType
	}{
		{"vaga meio período no turno da manhã", PartTime},
		{"contratação PJ, emissão de nota fiscal", Contractor},
		{"vaga de estágio em logística", Intern},
		{"trabalho temporário durante a safra", Temporary},
		{"motorista carreteiro, CLT", FullTime},
		{"", FullTime},
	}
	for _, tc := range cases {
		meta := in.Infer("", tc.text)
		require.Equal(t, tc.want, meta.EmploymentType, "text: %q", tc.text)
	}
}

func TestInferRemote(t *testing.T) {
	t.Parallel()

	in := NewInferencer("https://vagas.com.br", "")

	require.True(t, in.Infer("", "trabalho remoto").IsRemote)
	require.True(t, in.Infer("", "possibilidade de home office").IsRemote)
	require.False(t, in.Infer("", "trabalho presencial em São Paulo").IsRemote)
	// "remotamente" must not match via word boundary leakage.
	require.False(t, in.Infer("", "controle remotamente supervisionado").IsRemote)
}

func TestInferSalaryRange(t *testing.T) {
	t.Parallel()

	in := NewInferencer("https://vagas.com.br", "")

	meta := in.Infer("", "Salário: R$ 3.000 a R$ 4.500 mensais")
	require.NotNil(t, meta.Salary)
	require.Equal(t, "BRL", meta.Salary.Currency)
	require.Equal(t, float64(3000), meta.Salary.Min)
	require.Equal(t, float64(4500), meta.Salary.Max)
	require.Equal(t, "MONTH", meta.Salary.Unit)
}

func TestInferSalaryFloor(t *testing.T) {
	t.Parallel()

	in := NewInferencer("https://vagas.com.br", "")

	meta := in.Infer("", "a partir de R$ 2.500 por mês")
	require.NotNil(t, meta.Salary)
	require.Equal(t, float64(2500), meta.Salary.Min)
	require.Equal(t, float64(2500), meta.Salary.Max)
}

func TestInferSalaryUnits(t *testing.T) {
	t.Parallel()

	in := NewInferencer("https://vagas.com.br", "")

	meta := in.Infer("", "R$ 20 a R$ 25 por hora")
	require.NotNil(t, meta.Salary)
	require.Equal(t, "HOUR", meta.Salary.Unit)

	meta = in.Infer("", "US$ 40.000 to US$ 60.000 per year")
	require.NotNil(t, meta.Salary)
	require.Equal(t, "USD", meta.Salary.Currency)
	require.Equal(t, "YEAR", meta.Salary.Unit)
}

func TestInferSalaryNoCurrencyNoSalary(t *testing.T) {
	t.Parallel()

	in := NewInferencer("https://vagas.com.br", "")
	require.Nil(t, in.Infer("", "salário a combinar").Salary)
}

func TestParseAmountStripsGroupingPunctuation(t *testing.T) {
	t.Parallel()

	// Decimal separators are conflated with grouping separators. The
	// parse is knowingly lossy for fractional amounts.
	v, ok := parseAmount("3.500,50")
	require.True(t, ok)
	require.Equal(t, float64(350050), v)

	v, ok = parseAmount("3.000")
	require.True(t, ok)
	require.Equal(t, float64(3000), v)

	_, ok = parseAmount("abc")
	require.False(t, ok)
}

func TestInferExperience(t *testing.T) {
	t.Parallel()

	in := NewInferencer("https://vagas.com.br", "")

	meta := in.Infer("", "mínimo 3 anos de experiência em carreta")
	require.Equal(t, "3 anos de experiência", meta.ExperienceRequirements)

	meta = in.Infer("", "experiência comprovada na função")
	require.Equal(t, "experiência necessária", meta.ExperienceRequirements)

	meta = in.Infer("", "não é necessária experiência prévia")
	require.Empty(t, meta.ExperienceRequirements)
}

func TestInferExperienceInPlaceOfEducation(t *testing.T) {
	t.Parallel()

	in := NewInferencer("https://vagas.com.br", "")

	require.True(t, in.Infer("", "sem necessidade de diploma, experiência conta").ExperienceInPlaceOfEducation)
	require.False(t, in.Infer("", "ensino médio completo obrigatório").ExperienceInPlaceOfEducation)
}

func TestInferJobLocationsNeverEmpty(t *testing.T) {
	t.Parallel()

	in := NewInferencer("https://vagas.com.br", "")

	locs := in.InferJobLocations("")
	require.Len(t, locs, 1)
	require.Equal(t, "BR", locs[0].Country)
	require.Empty(t, locs[0].City)
}

func TestInferJobLocationsCityFromLexicon(t *testing.T) {
	t.Parallel()

	in := NewInferencer("https://vagas.com.br", "")

	locs := in.InferJobLocations("vaga em sao paulo, zona leste")
	require.Len(t, locs, 1)
	require.Equal(t, "São Paulo", locs[0].City)
	require.Equal(t, "BR", locs[0].Country)
}

func TestInferJobLocationsCountryFromSiteSuffix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		site string
		want string
	}{
		{"https://vagas.com.br", "BR"},
		{"https://empleos.mx/feed", "MX"},
		{"https://jobs.co.uk", "GB"},
		{"https://example.org", "BR"}, // fallback
	}
	for _, tc := range cases {
		in := NewInferencer(tc.site, "")
		require.Equal(t, tc.want, in.InferJobLocations("")[0].Country, "site: %s", tc.site)
	}
}

func TestInferStripsHTMLBeforeMatching(t *testing.T) {
	t.Parallel()

	in := NewInferencer("https://vagas.com.br", "")

	meta := in.Infer("Motorista", "<p>vaga <b>meio período</b> em <i>curitiba</i></p>")
	require.Equal(t, PartTime, meta.EmploymentType)
	require.Equal(t, "Curitiba", meta.Locations[0].City)
}
