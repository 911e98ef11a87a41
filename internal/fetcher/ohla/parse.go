package ohla

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ccampell/lyricscrawler/internal/archive"
)

// parseIndex extracts artist entries from an alphabetical index page.
// Artists appear as anchors inside the left-hand pre block; bare text
// nodes between them are separators and are ignored.
func parseIndex(body []byte, pageURL string) ([]archive.ListingEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	var entries []archive.ListingEntry
	scope := doc.Find("div#leftmain pre a[href]")
	if scope.Length() == 0 {
		scope = doc.Find("pre a[href]")
	}
	scope.Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		name := strings.TrimSpace(sel.Text())
		if href == "" || name == "" {
			return
		}
		entries = append(entries, archive.ListingEntry{
			Name: name,
			URL:  resolveHref(base, href),
		})
	})
	if len(entries) == 0 {
		return nil, fmt.Errorf("no artist anchors found")
	}
	return entries, nil
}

// parseListing extracts child entries (albums or songs) from an artist
// or album page. The primary shape is a table of rows with one anchor
// per child; older pages use a bare pre block of anchors.
func parseListing(body []byte, pageURL string) ([]archive.ListingEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	var entries []archive.ListingEntry
	collect := func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") || isParentLink(href) {
			return
		}
		name := strings.TrimSpace(sel.Text())
		if name == "" {
			name = displayNameFromHref(href)
		}
		if name == "" {
			return
		}
		entries = append(entries, archive.ListingEntry{
			Name: name,
			URL:  resolveHref(base, href),
		})
	}

	doc.Find("table tr td a[href]").Each(collect)
	if len(entries) == 0 {
		doc.Find("pre a[href]").Each(collect)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no child anchors found")
	}
	return entries, nil
}

// parseLyricText extracts the plaintext lyric body. Lyrics usually sit
// in a pre element; some pages carry them in a leading paragraph
// instead.
func parseLyricText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var text string
	doc.Find("pre").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		candidate := strings.TrimSpace(sel.Text())
		if candidate != "" {
			text = candidate
			return false
		}
		return true
	})
	if text == "" {
		text = strings.TrimSpace(doc.Find("body p").First().Text())
	}
	if text == "" {
		// A page that renders but has no pre or p lyric block is not
		// going to improve on retry.
		return "", fmt.Errorf("no lyric block found")
	}
	return text, nil
}

func resolveHref(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// isParentLink filters navigation anchors like "../" and index links
// that would walk back up the site.
func isParentLink(href string) bool {
	cleaned := strings.TrimSuffix(href, "/")
	return cleaned == ".." || strings.HasPrefix(href, "../") ||
		strings.EqualFold(cleaned, "index.html")
}

// displayNameFromHref derives a readable name from a bare href like
// "paid_in_full.txt".
func displayNameFromHref(href string) string {
	name := path.Base(strings.TrimSuffix(href, "/"))
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}
