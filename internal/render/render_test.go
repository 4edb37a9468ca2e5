package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/heimat-hq/listings-watcher/pkg/listings"
)

func TestPlainTextStripsMarkup(t *testing.T) {
	cases := map[string]string{
		"<p>Ruhige Lage, <b>Balkon</b> zum Hof.</p>": "Ruhige Lage, Balkon zum Hof.",
		"Zeile eins<br>Zeile zwei":                   "Zeile eins Zeile zwei",
		"  plain   text ":                            "plain text",
		"Fisch &amp; Chips":                          "Fisch & Chips",
		"":                                           "",
	}
	for in, want := range cases {
		if got := PlainText(in); got != want {
			t.Errorf("PlainText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTextRendersKnownAndUnknownValues(t *testing.T) {
	resp, err := listings.ParseString(`{"listings":[
		{"id":"1","listing":{
			"localization":{"primary":"de","de":{
				"attachments":[{"id":"a","url":"https://m/1.jpg","kind":"image"},{"id":"b","url":"https://m/2.pdf"}],
				"text":{"title":"<b>Altbau</b>","description":"<p>Hell</p>"}}},
			"characteristics":{"isOldBuilding":true,"floor":0},
			"availableFrom":"2024-05-01"}},
		{"id":"2","listing":{"localization":{"primary":"en"},"characteristics":{}}}
	]}`)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	var buf bytes.Buffer
	if err := Text(&buf, resp); err != nil {
		t.Fatalf("Text: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Listing 1 (primary locale: de)",
		"Title:          Altbau",
		"Text:           Hell",
		"Attachments:    2",
		"- [image] https://m/1.jpg",
		"- [file] https://m/2.pdf",
		"Available from: 2024-05-01",
		"Old building:   yes",
		"Floor:          ground",
		"Quiet:          unknown",
		"Listing 2 (primary locale: en)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Listing 1") > strings.Index(out, "Listing 2") {
		t.Fatalf("listings rendered out of order:\n%s", out)
	}
}

func TestTextAttachmentWithoutURL(t *testing.T) {
	resp, err := listings.ParseString(`{"listings":[{"id":"1","listing":{
		"localization":{"primary":"de","de":{"attachments":[{"id":"a"}],"text":{"title":"t","description":"d"}}},
		"characteristics":{}}}]}`)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	var buf bytes.Buffer
	if err := Text(&buf, resp); err != nil {
		t.Fatalf("Text: %v", err)
	}
	if !strings.Contains(buf.String(), "- [file] unknown") {
		t.Fatalf("expected placeholder for missing url, got:\n%s", buf.String())
	}
}
