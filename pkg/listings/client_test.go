package listings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/heimat-hq/listings-watcher/pkg/httpclient"
)

const singleListing = `{
  "listings": [
    {
      "id": "3002335392",
      "listing": {
        "localization": {"primary": "de"},
        "characteristics": {"floor": 2}
      }
    }
  ]
}`

type mockResponse struct {
	body       []byte
	statusCode int
}

func (r mockResponse) Body() []byte    { return r.body }
func (r mockResponse) StatusCode() int { return r.statusCode }

type mockHTTPClient struct {
	gotURL     string
	gotHeaders map[string]string
	status     int
	body       string
	err        error
}

func (m *mockHTTPClient) Get(_ context.Context, url string, headers map[string]string) (httpclient.Response, error) {
	m.gotURL = url
	m.gotHeaders = headers
	if m.err != nil {
		return nil, m.err
	}
	status := m.status
	if status == 0 {
		status = http.StatusOK
	}
	return mockResponse{body: []byte(m.body), statusCode: status}, nil
}

func readFixture(t *testing.T) []byte {
	t.Helper()
	raw, err := os.ReadFile("testdata/listing.json")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return raw
}

func TestParseFixture(t *testing.T) {
	resp, err := Parse(readFixture(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(resp.Listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(resp.Listings))
	}
	if got := resp.IDs(); got[0] != "3002335392" || got[1] != "3002335393" {
		t.Fatalf("unexpected order %v", got)
	}

	first := resp.Listings[0].Listing
	if first.Localization.DE == nil {
		t.Fatalf("expected de localization on first listing")
	}
	if first.Localization.DE.Text.Title != "Helle 3-Zimmer-Altbauwohnung" {
		t.Fatalf("unexpected title %q", first.Localization.DE.Text.Title)
	}
	if len(first.Localization.DE.Attachments) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(first.Localization.DE.Attachments))
	}
	if first.Characteristics.Floor == nil || *first.Characteristics.Floor != 3 {
		t.Fatalf("expected floor 3, got %v", first.Characteristics.Floor)
	}
	if first.AvailableFrom == nil || *first.AvailableFrom != "2024-05-01" {
		t.Fatalf("unexpected availableFrom %v", first.AvailableFrom)
	}
}

func TestParseOptionalFieldsAbsentOrNull(t *testing.T) {
	resp, err := Parse(readFixture(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	second := resp.Listings[1].Listing

	if second.Localization.DE != nil {
		t.Errorf("expected absent de entry, got %+v", second.Localization.DE)
	}
	if second.AvailableFrom != nil {
		t.Errorf("expected null availableFrom to decode as nil")
	}
	if second.Description != nil {
		t.Errorf("expected absent description to decode as nil")
	}
	if second.Characteristics.IsOldBuilding != nil || second.Characteristics.IsQuiet != nil {
		t.Errorf("expected unknown booleans, got %+v", second.Characteristics)
	}
	// floor 0 is a known value, not unknown
	if second.Characteristics.Floor == nil || *second.Characteristics.Floor != 0 {
		t.Errorf("expected floor 0 to be present, got %v", second.Characteristics.Floor)
	}
}

func TestParseNullDEIsAbsent(t *testing.T) {
	doc := `{"listings":[{"id":"1","listing":{"localization":{"primary":"de","de":null},"characteristics":{}}}]}`
	resp, err := ParseString(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if resp.Listings[0].Listing.Localization.DE != nil {
		t.Fatalf("expected nil de entry")
	}
}

func TestParseRejectsMissingMandatoryFields(t *testing.T) {
	cases := map[string]string{
		"primary missing": `{"listings":[{"id":"1","listing":{"localization":{},"characteristics":{}}}]}`,
		"title missing": `{"listings":[{"id":"1","listing":{"localization":{"primary":"de","de":{"attachments":[],"text":{"description":"d"}}},"characteristics":{}}}]}`,
		"title null": `{"listings":[{"id":"1","listing":{"localization":{"primary":"de","de":{"attachments":[],"text":{"title":null,"description":"d"}}},"characteristics":{}}}]}`,
		"attachments missing": `{"listings":[{"id":"1","listing":{"localization":{"primary":"de","de":{"text":{"title":"t","description":"d"}}},"characteristics":{}}}]}`,
		"characteristics missing": `{"listings":[{"id":"1","listing":{"localization":{"primary":"de"}}}]}`,
		"id missing":              `{"listings":[{"listing":{"localization":{"primary":"de"},"characteristics":{}}}]}`,
		"listings missing":        `{}`,
		"listings null":           `{"listings":null}`,
		"negative floor":          `{"listings":[{"id":"1","listing":{"localization":{"primary":"de"},"characteristics":{"floor":-1}}}]}`,
		"fractional floor":        `{"listings":[{"id":"1","listing":{"localization":{"primary":"de"},"characteristics":{"floor":1.5}}}]}`,
		"bool as string":          `{"listings":[{"id":"1","listing":{"localization":{"primary":"de"},"characteristics":{"isQuiet":"yes"}}}]}`,
		"id as number":            `{"listings":[{"id":1,"listing":{"localization":{"primary":"de"},"characteristics":{}}}]}`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseString(doc)
			if !errors.Is(err, ErrDecode) {
				t.Fatalf("expected decode error, got %v", err)
			}
		})
	}
}

func TestParseOneBadListingFailsWholeResponse(t *testing.T) {
	doc := `{"listings":[
		{"id":"ok","listing":{"localization":{"primary":"de"},"characteristics":{}}},
		{"id":"bad","listing":{"localization":{"primary":"de","de":{"attachments":["x"],"text":{"title":"t","description":"d"}}},"characteristics":{}}}
	]}`
	resp, err := ParseString(doc)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if len(resp.Listings) != 0 {
		t.Fatalf("expected no partial result, got %d listings", len(resp.Listings))
	}
}

func TestDecodeErrorBodyStaysValidUTF8(t *testing.T) {
	_, err := ParseString("x" + strings.Repeat("ä", 400))
	var lerr *Error
	if !errors.As(err, &lerr) || lerr.Kind != KindDecode {
		t.Fatalf("expected *Error of KindDecode, got %v", err)
	}
	if !utf8.ValidString(lerr.Body) {
		t.Fatalf("body snippet is not valid UTF-8: %q", lerr.Body)
	}
	if !strings.HasSuffix(lerr.Body, "...") {
		t.Fatalf("expected truncated body, got %d bytes", len(lerr.Body))
	}
}

func TestParseLeavesAttachmentShapeToMedia(t *testing.T) {
	doc := `{"listings":[{"id":"1","listing":{"localization":{"primary":"de","de":{
		"attachments":[{"url":"https://cdn/1.jpg"},{"id":"a2","kind":"floorplan","width":800},{}],
		"text":{"title":"t","description":"d"}}},"characteristics":{}}}]}`
	resp, err := ParseString(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := resp.Listings[0].Listing.Localization.DE.Attachments
	if len(got) != 3 {
		t.Fatalf("expected 3 attachments, got %d", len(got))
	}
	if got[0].ID != "" || got[0].URL != "https://cdn/1.jpg" || got[1].KindOr("image") != "floorplan" || got[2].KindOr("image") != "image" {
		t.Fatalf("unexpected attachments %+v", got)
	}
}

func TestParseMalformedJSON(t *testing.T) {
	for _, doc := range []string{"", "{", `{"listings":[`, "not json", `{"listings":[]}}`} {
		_, err := ParseString(doc)
		var lerr *Error
		if !errors.As(err, &lerr) || lerr.Kind != KindDecode {
			t.Fatalf("doc %q: expected *Error of KindDecode, got %v", doc, err)
		}
		if lerr.Body == "" {
			t.Fatalf("doc %q: expected body snippet for diagnostics", doc)
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	first, err := Parse(readFixture(t))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	encoded, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Parse(encoded)
	if err != nil {
		t.Fatalf("Parse re-encoded: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("round trip mismatch:\n%#v\n%#v", first, second)
	}
}

func TestCharacteristicsEqual(t *testing.T) {
	yes, no := true, false
	floor := uint32(2)

	a := Characteristics{IsOldBuilding: &yes, Floor: &floor}
	b := Characteristics{IsOldBuilding: &yes, Floor: &floor}
	if !a.Equal(b) {
		t.Fatalf("expected equal characteristics")
	}
	if a.Equal(Characteristics{IsOldBuilding: &no, Floor: &floor}) {
		t.Fatalf("expected different isOldBuilding to compare unequal")
	}
	if (Characteristics{}).Equal(Characteristics{IsQuiet: &no}) {
		t.Fatalf("unknown must not equal false")
	}
}

func TestListingURLJoinsIDsInOrder(t *testing.T) {
	c := MustNew("https://api.example.com", &mockHTTPClient{})

	got, err := c.ListingURL([]string{"A", "B"})
	if err != nil {
		t.Fatalf("ListingURL: %v", err)
	}
	if got != "https://api.example.com/listings/listings?ids=A,B" {
		t.Fatalf("unexpected url %q", got)
	}

	got, err = c.ListingURL([]string{"a b", "c&d"})
	if err != nil {
		t.Fatalf("ListingURL: %v", err)
	}
	if !strings.HasSuffix(got, "?ids=a+b,c%26d") {
		t.Fatalf("expected escaped ids, got %q", got)
	}
}

func TestListingURLKeepsBasePath(t *testing.T) {
	c := MustNew("https://api.example.com/v2/", &mockHTTPClient{})
	got, err := c.ListingURL([]string{"1"})
	if err != nil {
		t.Fatalf("ListingURL: %v", err)
	}
	if got != "https://api.example.com/v2/listings/listings?ids=1" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestNewRejectsMalformedBaseURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "api.example.com", "ftp://example.com", "https://", "https://x.com?a=1", "://bad"} {
		if _, err := New(raw, nil); err == nil {
			t.Errorf("expected error for base url %q", raw)
		}
	}
}

func TestMustNewPanicsOnMalformedBaseURL(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	MustNew("not a url", nil)
}

func TestFetchRequiresIDs(t *testing.T) {
	client := &mockHTTPClient{}
	c := MustNew("https://api.example.com", client)
	if _, err := c.Fetch(context.Background(), nil); !errors.Is(err, ErrNoIDs) {
		t.Fatalf("expected ErrNoIDs, got %v", err)
	}
	if client.gotURL != "" {
		t.Fatalf("no request expected without ids")
	}
}

func TestFetchSendsNoHeaders(t *testing.T) {
	client := &mockHTTPClient{body: singleListing}
	c := MustNew("https://api.example.com", client)

	if _, err := c.Fetch(context.Background(), []string{"A", "B"}); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if client.gotURL != "https://api.example.com/listings/listings?ids=A,B" {
		t.Fatalf("unexpected url %q", client.gotURL)
	}
	if len(client.gotHeaders) != 0 {
		t.Fatalf("expected no extra headers, got %v", client.gotHeaders)
	}
}

func TestFetchTransportErrorIsNetwork(t *testing.T) {
	c := MustNew("https://api.example.com", &mockHTTPClient{err: errors.New("dial tcp: refused")})

	_, err := c.Fetch(context.Background(), []string{"1"})
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if errors.Is(err, ErrDecode) {
		t.Fatalf("network error must not match ErrDecode")
	}
	if !strings.Contains(err.Error(), "refused") {
		t.Fatalf("expected cause in error, got %v", err)
	}
}

func TestFetchNon2xxIsNetwork(t *testing.T) {
	c := MustNew("https://api.example.com", &mockHTTPClient{status: http.StatusBadGateway, body: "upstream down"})

	_, err := c.Fetch(context.Background(), []string{"1"})
	var lerr *Error
	if !errors.As(err, &lerr) || lerr.Kind != KindNetwork {
		t.Fatalf("expected *Error of KindNetwork, got %v", err)
	}
	if lerr.Body != "upstream down" {
		t.Fatalf("expected body snippet, got %q", lerr.Body)
	}
}

func TestFetchBadBodyIsDecode(t *testing.T) {
	c := MustNew("https://api.example.com", &mockHTTPClient{body: `{"listings":[{"id":"1"}]}`})

	if _, err := c.Fetch(context.Background(), []string{"1"}); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestFetchSingleListingAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/listings/listings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.RawQuery != "ids=3002335392" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(singleListing))
	}))
	defer srv.Close()

	c, err := New(srv.URL, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	resp, err := c.Fetch(context.Background(), []string{"3002335392"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(resp.Listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(resp.Listings))
	}
}

func TestFetchCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(singleListing))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := MustNew(srv.URL, nil)
	if _, err := c.Fetch(ctx, []string{"1"}); !errors.Is(err, ErrNetwork) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancelled network error, got %v", err)
	}
}
