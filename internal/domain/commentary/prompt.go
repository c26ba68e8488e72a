package commentary

import (
	"fmt"
	"strings"

	"github.com/okian/halfpace/internal/domain/model"
	"github.com/okian/halfpace/internal/domain/timefmt"
	"github.com/okian/halfpace/internal/domain/types"
)

// Context is everything the commentary may refer to.
type Context struct {
	Name          string
	Gender        model.Gender
	Age           int
	AgeCategory   string
	Predicted     string
	EventName     string
	CategoryStats types.CategoryStats
	Ranking       types.RankingEstimate
}

// Supported prompt languages.
const (
	LangPolish  = "pl"
	LangEnglish = "en"
)

type phrases struct {
	system     string
	intro      string
	male       string
	female     string
	runner     string
	stats      string
	noStats    string
	ranking    string
	noRanking  string
	fasterThan string
	rules      []string
	closing    string
	labels     [5]string
}

var catalog = map[string]phrases{
	LangPolish: {
		system:     "Jesteś ekspertem od biegania i trenerem. Twoje komentarze są krótkie, motywujące i oparte na danych.",
		intro:      "Przeanalizuj poniższe wyniki przewidywanego czasu w półmaratonie (%s) i napisz krótki, motywujący komentarz (2-3 zdania) w języku polskim.",
		male:       "mężczyzna",
		female:     "kobieta",
		runner:     "Dane zawodnika:",
		stats:      "Średni czas w kategorii %s: %s, mediana: %s",
		noStats:    "Brak danych historycznych dla kategorii %s",
		ranking:    "Szacowana pozycja: %d/%d (percentyl: %.1f)",
		noRanking:  "Brak danych rankingowych",
		fasterThan: "Byłbyś szybszy niż %.1f%% zawodników w tej kategorii",
		rules: []string{
			"Ocenić wynik (świetny/dobry/przeciętny/wymaga pracy)",
			"Porównać do średniej w kategorii",
			"Dać motywującą wskazówkę lub gratulacje",
		},
		closing: "Bądź entuzjastyczny ale realistyczny. Nie używaj emoji.",
		labels:  [5]string{"Imię", "Płeć", "Wiek", "Kategoria wiekowa", "Przewidywany czas"},
	},
	LangEnglish: {
		system:     "You are a running coach. Your comments are short, motivating and grounded in data.",
		intro:      "Review the predicted half-marathon result below (%s) and write a short, motivating comment (2-3 sentences) in English.",
		male:       "male",
		female:     "female",
		runner:     "Runner:",
		stats:      "Mean time in category %s: %s, median: %s",
		noStats:    "No historical data for category %s",
		ranking:    "Estimated position: %d/%d (percentile: %.1f)",
		noRanking:  "No ranking data",
		fasterThan: "Faster than %.1f%% of the runners in this category",
		rules: []string{
			"Rate the result (excellent/good/average/needs work)",
			"Compare it with the category mean",
			"Give a motivating tip or congratulations",
		},
		closing: "Be enthusiastic but realistic. Do not use emoji.",
		labels:  [5]string{"Name", "Gender", "Age", "Age category", "Predicted time"},
	},
}

// Languages lists the supported prompt languages.
func Languages() []string { return []string{LangPolish, LangEnglish} }

// BuildPrompt renders the system and user messages for c. Unknown languages
// fall back to Polish.
func BuildPrompt(c Context, lang string) (system, user string) {
	p, ok := catalog[lang]
	if !ok {
		p = catalog[LangPolish]
	}

	gender := p.male
	if c.Gender == model.Female {
		gender = p.female
	}

	var statsLine string
	if s := c.CategoryStats; !s.Empty() {
		statsLine = fmt.Sprintf(p.stats, c.AgeCategory, timefmt.FormatOptional(s.Mean), timefmt.FormatOptional(s.Median))
	} else {
		statsLine = fmt.Sprintf(p.noStats, c.AgeCategory)
	}

	rankLine, fasterLine := p.noRanking, ""
	if r := c.Ranking; !r.Empty() {
		rankLine = fmt.Sprintf(p.ranking, *r.EstimatedPosition, r.TotalRunners, *r.Percentile)
		fasterLine = fmt.Sprintf(p.fasterThan, *r.FasterThanPercent)
	}

	var b strings.Builder
	fmt.Fprintf(&b, p.intro+"\n\n", c.EventName)
	b.WriteString(p.runner + "\n")
	values := [5]string{c.Name, gender, fmt.Sprint(c.Age), c.AgeCategory, c.Predicted}
	for i, l := range p.labels {
		fmt.Fprintf(&b, "- %s: %s\n", l, values[i])
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- %s\n- %s\n", statsLine, rankLine)
	if fasterLine != "" {
		fmt.Fprintf(&b, "- %s\n", fasterLine)
	}
	b.WriteString("\n")
	for i, r := range p.rules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r)
	}
	b.WriteString("\n" + p.closing)
	return p.system, b.String()
}
