package domain

// EnrichmentRequest is the inbound trigger for the metadata pipeline,
// created by the item-creation endpoint and consumed once by the worker.
type EnrichmentRequest struct {
	SourceURL string `json:"source_url"`
	ItemID    int64  `json:"item_id"`
	SkipImage bool   `json:"skip_image"`
}

// EnrichmentData carries extracted metadata between pipeline stages
type EnrichmentData struct {
	Title       string `json:"title"`
	Description string `json:"description"`

	// ImagePath is the temporary file the image stage downloaded, empty when
	// no image was fetched. The persist stage owns deleting the file.
	ImagePath string `json:"image_path"`
}

// PropertyValue is either a single string or an ordered list of strings,
// promoted when the same property repeats in a document.
type PropertyValue struct {
	values []string
}

// NewPropertyValue creates a scalar property value
func NewPropertyValue(content string) PropertyValue {
	return PropertyValue{values: []string{content}}
}

// Append adds another occurrence, promoting a scalar to a list
func (v PropertyValue) Append(content string) PropertyValue {
	return PropertyValue{values: append(v.values, content)}
}

// IsList reports whether the property repeated
func (v PropertyValue) IsList() bool {
	return len(v.values) > 1
}

// First returns the first occurrence in document order
func (v PropertyValue) First() string {
	if len(v.values) == 0 {
		return ""
	}
	return v.values[0]
}

// Values returns all occurrences in document order
func (v PropertyValue) Values() []string {
	return v.values
}

// Len returns the number of occurrences
func (v PropertyValue) Len() int {
	return len(v.values)
}

// PropertyMap maps normalized OpenGraph property names (prefix stripped) to
// their values. Transient; rebuilt per fetch.
type PropertyMap map[string]PropertyValue

// Add records an occurrence of a property, preserving encounter order
func (m PropertyMap) Add(property, content string) {
	if existing, ok := m[property]; ok {
		m[property] = existing.Append(content)
		return
	}
	m[property] = NewPropertyValue(content)
}

// Get returns the first value of a property, or the empty string
func (m PropertyMap) Get(property string) string {
	return m[property].First()
}
