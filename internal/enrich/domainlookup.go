package enrich

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"leadgen-engine/internal/domain"
	"leadgen-engine/internal/netutil"
)

// Hosts that rank for "<company> official website" but are never the
// company's own domain.
var domainBlocklist = []string{
	"linkedin.com",
	"facebook.com",
	"twitter.com",
	"x.com",
	"instagram.com",
	"youtube.com",
	"crunchbase.com",
	"wikipedia.org",
	"glassdoor.com",
	"indeed.com",
	"apollo.io",
	"zoominfo.com",
	"bloomberg.com",
	"pitchbook.com",
	"owler.com",
	"g2.com",
	"capterra.com",
	"yelp.com",
	"medium.com",
}

// DomainCache persists discovered company domains across runs. Get returns
// "" for a miss.
type DomainCache interface {
	Get(ctx context.Context, company string) (string, error)
	Put(ctx context.Context, company, domain string) error
}

// DomainLookup discovers a company website for leads that arrive without
// one, by scraping the HTML search results page. Results are cached per
// run so one company is never searched twice, and optionally persisted
// across runs via a DomainCache.
type DomainLookup struct {
	searchURL string
	hc        *http.Client
	limiter   *netutil.HostLimiter
	persist   DomainCache

	mu    sync.Mutex
	cache map[string]string // company (lowercase) -> domain, "" for a miss
}

func NewDomainLookup(limiter *netutil.HostLimiter) *DomainLookup {
	return &DomainLookup{
		searchURL: "https://duckduckgo.com/html/",
		hc:        &http.Client{Timeout: 12 * time.Second},
		limiter:   limiter,
		cache:     map[string]string{},
	}
}

// SetSearchURL points the lookup at a different results page, used by tests.
func (d *DomainLookup) SetSearchURL(u string) { d.searchURL = u }

// SetCache attaches a persistent company->domain cache.
func (d *DomainLookup) SetCache(c DomainCache) { d.persist = c }

func (d *DomainLookup) Name() string { return "domain_lookup" }

func (d *DomainLookup) Enrich(ctx context.Context, lead domain.Lead) (Patch, error) {
	if lead.CompanyDomain != "" || strings.TrimSpace(lead.Company) == "" {
		return nil, nil
	}

	key := strings.ToLower(strings.TrimSpace(lead.Company))
	d.mu.Lock()
	cached, ok := d.cache[key]
	d.mu.Unlock()
	if ok {
		return domainPatch(cached), nil
	}

	if d.persist != nil {
		hit, err := d.persist.Get(ctx, lead.Company)
		if err != nil {
			log.Printf("[domain] cache read company=%q err=%v", lead.Company, err)
		} else if hit != "" {
			d.remember(key, hit)
			return domainPatch(hit), nil
		}
	}

	found, err := d.search(ctx, lead.Company)
	if err != nil {
		return nil, err
	}

	d.remember(key, found)
	if found != "" && d.persist != nil {
		if err := d.persist.Put(ctx, lead.Company, found); err != nil {
			log.Printf("[domain] cache write company=%q err=%v", lead.Company, err)
		}
	}
	return domainPatch(found), nil
}

func (d *DomainLookup) remember(key, host string) {
	d.mu.Lock()
	d.cache[key] = host
	d.mu.Unlock()
}

func domainPatch(host string) Patch {
	if host == "" {
		return nil
	}
	return Patch{"company_domain": host}
}

func (d *DomainLookup) search(ctx context.Context, company string) (string, error) {
	query := fmt.Sprintf("%s official website", sanitizeCompanyForSearch(company))
	u := d.searchURL + "?q=" + url.QueryEscape(query)

	if d.limiter != nil {
		if err := d.limiter.WaitURL(ctx, u); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := d.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("domain lookup: http %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("domain lookup: parse: %w", err)
	}

	var best string
	doc.Find("a.result__a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return true
		}
		host := hostFromURL(decodeRedirect(href))
		if host == "" {
			return true
		}
		host = strings.ToLower(strings.TrimPrefix(host, "www."))
		if isBlockedDomain(host) {
			return true
		}
		best = host
		return false // first good domain wins
	})
	return best, nil
}

// decodeRedirect unwraps the /l/?uddg=<urlencoded> indirection the results
// page wraps links in.
func decodeRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		if dec, err := url.QueryUnescape(uddg); err == nil && dec != "" {
			return dec
		}
	}
	return href
}

func hostFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

func isBlockedDomain(host string) bool {
	for _, b := range domainBlocklist {
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}

func sanitizeCompanyForSearch(s string) string {
	s = strings.TrimSpace(s)
	r := strings.NewReplacer(
		", Inc.", "", " Inc.", "", " Inc", "",
		", LLC", "", " LLC", "",
		", Ltd.", "", " Ltd.", "", " Ltd", "",
		" GmbH", "",
		" Corp.", "", " Corp", "",
	)
	return strings.Join(strings.Fields(r.Replace(s)), " ")
}
