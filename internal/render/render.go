package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/heimat-hq/listings-watcher/pkg/listings"
)

const unknown = "unknown"

// blockBreaks keeps words in adjacent blocks from running together.
var blockBreaks = strings.NewReplacer("<br", " <br", "</p>", " </p>", "</li>", " </li>", "</div>", " </div>")

// Text writes a human-readable block per listing, in response order.
func Text(w io.Writer, resp listings.ListingResponse) error {
	for i, l := range resp.Listings {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := writeListing(w, l); err != nil {
			return fmt.Errorf("render listing %s: %w", l.ID, err)
		}
	}
	return nil
}

func writeListing(w io.Writer, l listings.OuterListing) error {
	ext := l.Listing
	var b strings.Builder

	fmt.Fprintf(&b, "Listing %s (primary locale: %s)\n", l.ID, ext.Localization.Primary)
	if de := ext.Localization.DE; de != nil {
		fmt.Fprintf(&b, "  Title:          %s\n", PlainText(de.Text.Title))
		if desc := PlainText(de.Text.Description); desc != "" {
			fmt.Fprintf(&b, "  Text:           %s\n", desc)
		}
		fmt.Fprintf(&b, "  Attachments:    %d\n", len(de.Attachments))
		for _, a := range de.Attachments {
			link := a.URL
			if link == "" {
				link = unknown
			}
			fmt.Fprintf(&b, "    - [%s] %s\n", a.KindOr("file"), link)
		}
	}
	if ext.Description != nil {
		fmt.Fprintf(&b, "  Description:    %s\n", PlainText(*ext.Description))
	}
	fmt.Fprintf(&b, "  Available from: %s\n", orUnknown(ext.AvailableFrom))

	c := ext.Characteristics
	fmt.Fprintf(&b, "  Old building:   %s\n", boolOrUnknown(c.IsOldBuilding))
	fmt.Fprintf(&b, "  Floor:          %s\n", floorOrUnknown(c.Floor))
	fmt.Fprintf(&b, "  Quiet:          %s\n", boolOrUnknown(c.IsQuiet))

	_, err := io.WriteString(w, b.String())
	return err
}

// PlainText strips markup from s and collapses whitespace. Input without
// markup is returned trimmed.
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(blockBreaks.Replace(s)))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func orUnknown(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return unknown
	}
	return *s
}

func boolOrUnknown(v *bool) string {
	if v == nil {
		return unknown
	}
	if *v {
		return "yes"
	}
	return "no"
}

func floorOrUnknown(v *uint32) string {
	if v == nil {
		return unknown
	}
	if *v == 0 {
		return "ground"
	}
	return strconv.FormatUint(uint64(*v), 10)
}
