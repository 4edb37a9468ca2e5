package listings

import "github.com/heimat-hq/listings-watcher/pkg/media"

// ListingResponse is the envelope returned by the listings endpoint.
// Listings keep the order of the source document.
type ListingResponse struct {
	Listings []OuterListing `json:"listings"`
}

// OuterListing pairs a listing id with its payload.
type OuterListing struct {
	ID      string          `json:"id"`
	Listing ExtendedListing `json:"listing"`
}

// ExtendedListing is the listing payload.
type ExtendedListing struct {
	Localization    Localization    `json:"localization"`
	Characteristics Characteristics `json:"characteristics"`
	AvailableFrom   *string         `json:"availableFrom,omitempty"`
	Description     *string         `json:"description,omitempty"`
}

// Localization holds the primary locale code and the German entry, if any.
type Localization struct {
	Primary string             `json:"primary"`
	DE      *LocalizationEntry `json:"de,omitempty"`
}

// LocalizationEntry is the text and media bundle of one locale.
type LocalizationEntry struct {
	Attachments []media.Attachment    `json:"attachments"`
	Text        LocalizationEntryText `json:"text"`
}

type LocalizationEntryText struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Characteristics describes physical traits of a listing. A nil field means
// the backend does not know the value.
type Characteristics struct {
	IsOldBuilding *bool   `json:"isOldBuilding,omitempty"`
	Floor         *uint32 `json:"floor,omitempty"`
	IsQuiet       *bool   `json:"isQuiet,omitempty"`
}

// Equal reports whether both values carry the same known/unknown state and values.
func (c Characteristics) Equal(o Characteristics) bool {
	return equalPtr(c.IsOldBuilding, o.IsOldBuilding) &&
		equalPtr(c.Floor, o.Floor) &&
		equalPtr(c.IsQuiet, o.IsQuiet)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// IDs returns the listing ids in response order.
func (r ListingResponse) IDs() []string {
	out := make([]string, 0, len(r.Listings))
	for _, l := range r.Listings {
		out = append(out, l.ID)
	}
	return out
}
