package media

// Attachment references a media object (image, floor plan, document) hosted by
// the media service. Listings embed attachments per locale.
//
// The listings backend only guarantees that each attachment is a JSON object.
// Every field is optional: ID and URL are empty when the media service left
// them out, and unknown keys are ignored.
type Attachment struct {
	ID      string  `json:"id,omitempty"`
	URL     string  `json:"url,omitempty"`
	Kind    *string `json:"kind,omitempty"`
	Caption *string `json:"caption,omitempty"`
}

// KindOr returns the attachment kind or fallback when it is not set.
func (a Attachment) KindOr(fallback string) string {
	if a.Kind == nil || *a.Kind == "" {
		return fallback
	}
	return *a.Kind
}
