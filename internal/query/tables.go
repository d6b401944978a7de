package query

import (
	"strings"

	"leadgen-engine/internal/domain"
)

// cueEntry maps a set of cue phrases to one canonical value. Cues are
// lowercase; multi-word cues are matched with longest-lookahead.
type cueEntry struct {
	value string
	cues  []string
}

// cueTable is an ordered list of entries plus a phrase index. Entry order
// matters twice: earlier entries claim a phrase first at build time, and
// seniority inference walks entries in rank order.
type cueTable struct {
	entries []cueEntry
	phrases map[string]string
	maxLen  int
}

func newCueTable(entries []cueEntry) *cueTable {
	t := &cueTable{entries: entries, phrases: map[string]string{}, maxLen: 1}
	for _, e := range entries {
		for _, c := range e.cues {
			if _, taken := t.phrases[c]; taken {
				continue
			}
			t.phrases[c] = e.value
			if n := len(strings.Fields(c)); n > t.maxLen {
				t.maxLen = n
			}
		}
	}
	return t
}

// lookup tries the longest n-gram first at position i, then shorter ones.
// Each n-gram is tried verbatim and with its final word singularized, so
// "vice presidents" still hits "vice president". Returns the canonical
// value and how many tokens were consumed.
func (t *cueTable) lookup(toks []token, i int) (string, int, bool) {
	max := t.maxLen
	if rest := len(toks) - i; rest < max {
		max = rest
	}
	for n := max; n >= 1; n-- {
		parts := make([]string, 0, n)
		for _, tok := range toks[i : i+n] {
			parts = append(parts, tok.lower)
		}
		if v, ok := t.phrases[strings.Join(parts, " ")]; ok {
			return v, n, true
		}
		if s := singularize(parts[n-1]); s != parts[n-1] {
			parts[n-1] = s
			if v, ok := t.phrases[strings.Join(parts, " ")]; ok {
				return v, n, true
			}
		}
	}
	return "", 0, false
}

func (t *cueTable) knows(lower string) bool {
	if _, ok := t.phrases[lower]; ok {
		return true
	}
	_, ok := t.phrases[singularize(lower)]
	return ok
}

// Title cues: curated role nouns to canonical title patterns.
var titleTable = newCueTable([]cueEntry{
	{"CTO*", []string{"cto", "chief technology officer", "chief technical officer"}},
	{"CEO*", []string{"ceo", "chief executive officer"}},
	{"CFO*", []string{"cfo", "chief financial officer"}},
	{"COO*", []string{"coo", "chief operating officer"}},
	{"CIO*", []string{"cio", "chief information officer"}},
	{"CMO*", []string{"cmo", "chief marketing officer"}},
	{"CISO*", []string{"ciso"}},
	{"VP*", []string{"vp", "svp", "evp", "vice president"}},
	{"President*", []string{"president"}},
	{"Founder*", []string{"founder", "cofounder", "co-founder"}},
	{"Owner*", []string{"owner"}},
	{"Director*", []string{"director"}},
	{"Head*", []string{"head"}},
	{"Product Manager*", []string{"product manager"}},
	{"Manager*", []string{"manager"}},
	{"Administrator*", []string{"administrator", "admin", "sysadmin"}},
	{"Engineer*", []string{"engineer"}},
	{"Developer*", []string{"developer"}},
	{"Architect*", []string{"architect"}},
	{"Analyst*", []string{"analyst"}},
	{"Designer*", []string{"designer"}},
	{"Recruiter*", []string{"recruiter"}},
	{"Consultant*", []string{"consultant"}},
	{"Account Executive*", []string{"account executive"}},
})

// Seniority cues, ordered by rank (highest first). Inference returns the
// first entry with a hit, so "VP & Founder" classifies as c_suite.
var seniorityTable = newCueTable([]cueEntry{
	{domain.SeniorityCSuite, []string{
		"ceo", "cto", "cfo", "coo", "cio", "cmo", "ciso", "chief",
		"c-suite", "c-level", "cxo", "founder", "cofounder", "co-founder",
		"owner", "president",
	}},
	{domain.SeniorityVP, []string{"vp", "svp", "evp", "avp", "vice president"}},
	{domain.SeniorityDirector, []string{"director", "head"}},
	{domain.SeniorityManager, []string{"manager", "supervisor"}},
	{domain.SeniorityIC, []string{
		"individual contributor", "engineer", "developer", "analyst",
		"specialist", "coordinator", "consultant", "representative",
		"associate", "administrator", "designer", "recruiter",
	}},
})

// Qualitative size cues to canonical half-open ranges. Numeric mentions
// ("50-200 employees") are parsed separately and take precedence.
var sizeCues = []struct {
	r    domain.SizeRange
	cues []string
}{
	{domain.SizeRange{Min: 1, Max: 50}, []string{"startup", "small", "smb", "tiny", "early-stage"}},
	{domain.SizeRange{Min: 51, Max: 200}, []string{"mid-size", "midsize", "mid-sized", "medium", "mid-market", "midmarket"}},
	{domain.SizeRange{Min: 500}, []string{"large", "big"}},
	{domain.SizeRange{Min: 1000}, []string{"enterprise"}},
}

var sizeTable = newSizeTable()

func newSizeTable() *cueTable {
	var entries []cueEntry
	for _, sc := range sizeCues {
		entries = append(entries, cueEntry{value: sc.r.String(), cues: sc.cues})
	}
	return newCueTable(entries)
}

func sizeRangeFor(label string) (domain.SizeRange, bool) {
	for _, sc := range sizeCues {
		if sc.r.String() == label {
			return sc.r, true
		}
	}
	return domain.SizeRange{}, false
}

// Industry cues: keyword to canonical industry token, all matches retained.
var industryTable = newCueTable([]cueEntry{
	{"SaaS", []string{"saas"}},
	{"Software", []string{"software"}},
	{"Technology", []string{"tech", "technology"}},
	{"Fintech", []string{"fintech"}},
	{"Financial Services", []string{"finance", "financial", "financial services"}},
	{"Banking", []string{"bank", "banking"}},
	{"Insurance", []string{"insurance", "insurtech"}},
	{"Healthcare", []string{"healthcare", "health care", "medical"}},
	{"Biotech", []string{"biotech", "biotechnology"}},
	{"Pharmaceuticals", []string{"pharma", "pharmaceutical"}},
	{"Marketing", []string{"marketing"}},
	{"Advertising", []string{"advertising", "adtech"}},
	{"E-commerce", []string{"ecommerce", "e-commerce"}},
	{"Retail", []string{"retail"}},
	{"Manufacturing", []string{"manufacturing", "industrial"}},
	{"Construction", []string{"construction"}},
	{"Real Estate", []string{"real estate", "proptech", "realty"}},
	{"Logistics", []string{"logistics", "supply chain", "freight", "shipping"}},
	{"Education", []string{"education", "edtech"}},
	{"Agriculture", []string{"agriculture", "farm", "farming", "agtech"}},
	{"Energy", []string{"energy", "solar", "renewables"}},
	{"Telecommunications", []string{"telecom", "telecommunications"}},
	{"Media", []string{"media", "publishing", "entertainment"}},
	{"Hospitality", []string{"hospitality", "hotel", "restaurant"}},
	{"Travel", []string{"travel", "tourism"}},
	{"Legal", []string{"legal", "law firm"}},
	{"Nonprofit", []string{"nonprofit", "non-profit", "charity"}},
	{"Consulting", []string{"consulting"}},
	{"Cybersecurity", []string{"cybersecurity", "security", "infosec"}},
	{"Artificial Intelligence", []string{"ai", "artificial intelligence", "machine learning"}},
	{"Blockchain", []string{"crypto", "blockchain", "web3"}},
	{"Gaming", []string{"gaming"}},
	{"Automotive", []string{"automotive"}},
	{"Human Resources", []string{"hr", "human resources", "staffing", "recruiting"}},
})

// Location aliases to canonical tokens. Unrecognized capitalized words
// after "in"/"at"/"from" fall through to the verbatim heuristic.
var locationTable = newCueTable([]cueEntry{
	{"United States", []string{"us", "usa", "united states", "america", "united states of america"}},
	{"United Kingdom", []string{"uk", "united kingdom", "britain", "great britain", "england"}},
	{"Canada", []string{"canada"}},
	{"Germany", []string{"germany"}},
	{"France", []string{"france"}},
	{"Spain", []string{"spain"}},
	{"Italy", []string{"italy"}},
	{"Netherlands", []string{"netherlands", "holland"}},
	{"Sweden", []string{"sweden"}},
	{"Norway", []string{"norway"}},
	{"Denmark", []string{"denmark"}},
	{"Finland", []string{"finland"}},
	{"Switzerland", []string{"switzerland"}},
	{"Austria", []string{"austria"}},
	{"Poland", []string{"poland"}},
	{"Portugal", []string{"portugal"}},
	{"Ireland", []string{"ireland"}},
	{"Belgium", []string{"belgium"}},
	{"Brazil", []string{"brazil"}},
	{"Mexico", []string{"mexico"}},
	{"Argentina", []string{"argentina"}},
	{"Colombia", []string{"colombia"}},
	{"Chile", []string{"chile"}},
	{"India", []string{"india"}},
	{"China", []string{"china"}},
	{"Japan", []string{"japan"}},
	{"Singapore", []string{"singapore"}},
	{"Australia", []string{"australia"}},
	{"New Zealand", []string{"new zealand"}},
	{"South Korea", []string{"korea", "south korea"}},
	{"Israel", []string{"israel"}},
	{"United Arab Emirates", []string{"uae", "dubai", "united arab emirates"}},
	{"South Africa", []string{"south africa"}},
	{"Europe", []string{"europe", "european"}},
	{"EMEA", []string{"emea"}},
	{"APAC", []string{"apac", "asia pacific"}},
	{"Asia", []string{"asia"}},
	{"Latin America", []string{"latam", "latin america"}},
	{"North America", []string{"north america"}},
	{"New York", []string{"nyc", "new york", "new york city"}},
	{"San Francisco", []string{"sf", "san francisco", "bay area"}},
	{"Los Angeles", []string{"los angeles"}},
	{"Boston", []string{"boston"}},
	{"Austin", []string{"austin"}},
	{"Seattle", []string{"seattle"}},
	{"Chicago", []string{"chicago"}},
	{"Denver", []string{"denver"}},
	{"Miami", []string{"miami"}},
	{"Atlanta", []string{"atlanta"}},
	{"London", []string{"london"}},
	{"Berlin", []string{"berlin"}},
	{"Munich", []string{"munich"}},
	{"Paris", []string{"paris"}},
	{"Amsterdam", []string{"amsterdam"}},
	{"Dublin", []string{"dublin"}},
	{"Madrid", []string{"madrid"}},
	{"Barcelona", []string{"barcelona"}},
	{"Stockholm", []string{"stockholm"}},
	{"Toronto", []string{"toronto"}},
	{"Vancouver", []string{"vancouver"}},
	{"Tel Aviv", []string{"tel aviv"}},
	{"Bangalore", []string{"bangalore", "bengaluru"}},
	{"Sydney", []string{"sydney"}},
	{"Tokyo", []string{"tokyo"}},
})

var locationPrepositions = map[string]bool{"in": true, "at": true, "from": true}

// knownCue reports whether any table recognizes the token, which excludes
// it from the verbatim-location fallback.
func knownCue(lower string) bool {
	return titleTable.knows(lower) ||
		seniorityTable.knows(lower) ||
		sizeTable.knows(lower) ||
		industryTable.knows(lower) ||
		locationTable.knows(lower)
}
