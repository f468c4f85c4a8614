package extract

import (
	"regexp"

	"github.com/ppiankov/promessa/internal/model"
)

// Lexicon holds the word lists driving rule-based extraction. Entries are
// stored folded (lowercase, no accents).
type Lexicon struct {
	PromissoryVerbs []string
	Categories      []CategoryKeywords
	Negations       []string
	Actors          []string
	Locations       []string
}

// CategoryKeywords maps keyword prefixes to a category. Multi-word entries
// match as phrases; a trailing "$" requires the whole token ("sus$").
type CategoryKeywords struct {
	Category model.Category
	Keywords []string
}

// DefaultLexicon returns the Portuguese lexicon for political statements
func DefaultLexicon() Lexicon {
	return Lexicon{
		PromissoryVerbs: []string{
			"vou", "vamos", "irei", "iremos", "farei", "faremos", "farao",
			"prometo", "prometemos", "pretendo", "pretendemos", "planejo", "planejamos",
			"sera", "serao", "garanto", "garantimos",
			"construir", "criar", "investir", "contratar", "ampliar", "reduzir", "aumentar", "implantar",
			"construirei", "construiremos", "criarei", "criaremos", "investirei", "investiremos",
			"implementarei", "implementaremos", "ampliarei", "ampliaremos", "reduzirei", "reduziremos",
			"aumentarei", "aumentaremos", "garantirei", "garantiremos", "entregarei", "entregaremos",
			"expandirei", "expandiremos", "modernizarei", "modernizaremos",
		},
		Categories: []CategoryKeywords{
			{model.CategoryInfrastructure, []string{"constru", "obra", "estrada", "ponte", "rodovia", "ferrovia", "aeroporto", "porto", "infraestrutura", "saneamento", "pavimenta"}},
			{model.CategoryEducation, []string{"escola", "educacao", "ensino", "universidade", "creche", "professor", "aluno", "aprendizado"}},
			{model.CategoryHealth, []string{"saude", "hospita", "medico", "medicamento", "ambulancia", "clinica", "enfermeir", "sus$", "posto de saude"}},
			{model.CategoryEmployment, []string{"emprego", "trabalho", "desemprego", "salario", "profiss", "ocupacao", "contratac", "vagas"}},
			{model.CategorySecurity, []string{"seguranca", "policia", "policiais", "crime", "violencia", "patrulha", "delegacia", "presidio", "criminalidade"}},
			{model.CategoryEnvironment, []string{"meio ambiente", "ambiental", "sustentab", "floresta", "desmatamento", "poluicao", "reciclagem", "energia limpa", "energia renovavel"}},
			{model.CategorySocial, []string{"social", "pobreza", "assistencia", "beneficio", "auxilio", "vulnera", "inclusao", "bolsa familia", "moradia"}},
			{model.CategoryEconomy, []string{"economia", "imposto", "tributo", "empresa", "investimento", "crescimento", "pib$", "inflacao", "juros", "renda"}},
			{model.CategoryAgriculture, []string{"agricultura", "agricultor", "fazenda", "agropecuaria", "plantacao", "colheita", "produtor rural", "safra"}},
			{model.CategoryCulture, []string{"cultura", "cultural", "musica", "cinema", "museu", "patrimonio", "festival", "teatro"}},
			{model.CategoryTransport, []string{"transporte", "onibus", "metro", "mobilidade", "trem$", "trens$", "brt$", "ciclovia"}},
		},
		Negations: []string{"nao", "nunca", "jamais", "nenhum", "nenhuma", "nem"},
		Actors: []string{
			"governo", "prefeitura", "ministerio", "uniao", "estado", "municipio",
			"congresso", "camara", "senado", "secretaria", "assembleia", "prefeito", "governador", "presidente",
		},
		Locations: []string{
			"brasil", "pais", "nordeste", "sudeste", "sul", "norte", "centro-oeste",
			"amazonia", "sao paulo", "rio de janeiro", "minas gerais", "bahia", "pernambuco", "ceara",
			"parana", "santa catarina", "rio grande do sul", "goias", "amazonas", "distrito federal", "brasilia",
		},
	}
}

var (
	// Deadline and large-quantity markers, matched against folded text
	deadlinePattern = regexp.MustCompile(`\b(ate|prazo|dias?|semanas?|mes|meses|anos?|mandato|primeiro ano|202[5-9]|2030)\b`)
	quantityPattern = regexp.MustCompile(`\b(mil|milhao|milhoes|bilhao|bilhoes|centenas|dezenas|todo|toda|todos|todas)\b|100%`)
	digitPattern    = regexp.MustCompile(`\d`)

	conditionalPattern = regexp.MustCompile(`\b(se|caso|quando|a menos que|exceto se|salvo se)\b`)

	// Amounts: "R$ 2 bilhões", "1.000", "30%"
	numberPattern = regexp.MustCompile(`(?i)R\$\s*\d+(?:[.,]\d+)*(?:\s*(?:mil|milh[õo]es|milh[ãa]o|bilh[õo]es|bilh[ãa]o))?|\d+(?:[.,]\d+)*(?:\s*(?:mil|milh[õo]es|milh[ãa]o|bilh[õo]es|bilh[ãa]o|%))?`)
)

var brazilianStates = map[string]bool{
	"AC": true, "AL": true, "AP": true, "AM": true, "BA": true, "CE": true, "DF": true, "ES": true, "GO": true,
	"MA": true, "MT": true, "MS": true, "MG": true, "PA": true, "PB": true, "PR": true, "PE": true, "PI": true,
	"RJ": true, "RN": true, "RS": true, "RO": true, "RR": true, "SC": true, "SP": true, "SE": true, "TO": true,
}

// scopePatterns are checked in order; the first hit wins
var scopePatterns = []struct {
	scope model.Scope
	words []string
}{
	{model.ScopeNational, []string{"pais", "nacao", "brasil", "nacional", "federacao", "uniao", "federal"}},
	{model.ScopeState, []string{"estado", "estadual", "governador"}},
	{model.ScopeMunicipal, []string{"municipio", "municipal", "cidade", "prefeitura", "camara municipal", "vereador", "bairro"}},
	{model.ScopeRegional, []string{"regiao", "regional", "nordeste", "sudeste", "sul", "norte", "centro-oeste"}},
}
