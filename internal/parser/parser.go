// Package parser turns a lombard-perspectiva.ru product page into the
// caption and photo list a curation session starts from.
package parser

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	productHost = "lombard-perspectiva.ru"
	productPath = "/clock/"

	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	requestTimeout = 30 * time.Second
	maxWebPhotos   = 10
)

// Product is the scraped page content: a ready HTML caption and the photo
// URLs found in the gallery, deduplicated and capped.
type Product struct {
	CaptionHTML string
	PhotoURLs   []string
}

// ProductParser scrapes one product page.
type ProductParser interface {
	Parse(ctx context.Context, pageURL string) (*Product, error)
}

// LombardParser scrapes lombard-perspectiva.ru watch pages.
type LombardParser struct {
	client *http.Client
}

// NewLombardParser creates a parser with a request-timeout HTTP client.
func NewLombardParser() *LombardParser {
	return &LombardParser{client: &http.Client{Timeout: requestTimeout}}
}

// IsValidURL reports whether s parses as an absolute http(s) URL.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidProductURL reports whether s points at a product page this parser
// understands.
func IsValidProductURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Host == productHost && strings.HasPrefix(u.Path, productPath)
}

// Parse fetches and scrapes the page. Network and HTTP-status failures are
// returned as errors; missing page elements degrade to placeholder text so
// a partially rendered page still yields a usable caption.
func (p *LombardParser) Parse(ctx context.Context, pageURL string) (*Product, error) {
	log.Printf("[Parser] Fetching product page: %s", pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", pageURL, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetching %s: unexpected status %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pageURL, err)
	}
	return extract(doc, pageURL), nil
}

// characteristicKeys are matched case-insensitively against option labels.
// Only a subset ends up in the caption but all are collected, so extending
// the template later is a one-line change.
var characteristicKeys = []string{
	"Тип",
	"Материал корпуса",
	"Водонепроницаемость",
	"Диаметр корпуса",
	"Цвет циферблата",
	"Безель",
	"Механизм",
	"Функции",
	"Запас хода",
	"Калибр",
	"Материал ремешка",
	"Комплектация",
	"Состояние",
	"Стекло",
}

func extract(doc *goquery.Document, pageURL string) *Product {
	title := textOr(doc.Find("a.catalog-item--brand-title").First(), "Название не найдено")
	subtitle := textOr(doc.Find("div.catalog-item--model").First(), "")
	reference := textOr(doc.Find("div.text-gray").First(), "Нет данных")
	condition := textOr(doc.Find("div.flex-shrink-0").First(), "Состояние неизвестно")

	price := "По запросу"
	if t := strings.TrimSpace(doc.Find("p.item-price--text").First().Text()); t != "" {
		price = t
	}

	chars := make(map[string]string, len(characteristicKeys))
	for _, key := range characteristicKeys {
		chars[key] = "Нет данных"
	}
	doc.Find("div.d-block.d-sm-flex.flex-nowrap.justify-space-between.align-baseline.my-2").
		Each(func(_ int, row *goquery.Selection) {
			label := strings.ToLower(strings.TrimSpace(row.Find("div.option-label").First().Text()))
			value := strings.TrimSpace(row.Find("div.option-value").First().Text())
			if label == "" || value == "" {
				return
			}
			for _, key := range characteristicKeys {
				if strings.Contains(label, strings.ToLower(key)) {
					chars[key] = value
				}
			}
		})

	return &Product{
		CaptionHTML: buildCaption(pageURL, title, subtitle, reference, condition, price, chars),
		PhotoURLs:   extractPhotos(doc, pageURL),
	}
}

func extractPhotos(doc *goquery.Document, pageURL string) []string {
	base, baseErr := url.Parse(pageURL)
	seen := make(map[string]bool)
	var photos []string

	doc.Find("div.catalog-item--photos__grid img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok {
			return
		}
		src = strings.TrimSpace(strings.SplitN(src, "?", 2)[0])
		if src == "" || strings.Contains(strings.ToLower(src), "noimage") || strings.HasPrefix(src, "data:image") {
			return
		}

		full := src
		if baseErr == nil {
			if ref, err := url.Parse(src); err == nil {
				full = base.ResolveReference(ref).String()
			}
		}
		if seen[full] {
			return
		}
		seen[full] = true
		photos = append(photos, full)
	})

	if len(photos) > maxWebPhotos {
		photos = photos[:maxWebPhotos]
	}
	return photos
}

func buildCaption(pageURL, title, subtitle, reference, condition, price string, chars map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<a href=%q><b>%s</b>  <b>%s</b></a>\n", pageURL, title, subtitle)
	fmt.Fprintf(&b, "<b>%s</b>\n\n", reference)
	fmt.Fprintf(&b, "<b>Состояние:</b> %s\n", condition)
	fmt.Fprintf(&b, "<b>Материал корпуса:</b> %s\n", chars["Материал корпуса"])
	fmt.Fprintf(&b, "<b>Функции:</b> %s\n", chars["Функции"])
	fmt.Fprintf(&b, "<b>Материал ремешка:</b> %s\n\n", chars["Материал ремешка"])
	fmt.Fprintf(&b, "<b>Цена:</b> %s\n", price)
	b.WriteString("<b>Наши контакты:</b> @Genesislab\nЕкатеринбург\n+7(982)663-99-99")
	return strings.TrimSpace(b.String())
}

func textOr(sel *goquery.Selection, fallback string) string {
	if t := strings.TrimSpace(sel.Text()); t != "" {
		return t
	}
	return fallback
}
