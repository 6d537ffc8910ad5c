package model

// WordFormItem is one inflected form of a lemma.
type WordFormItem struct {
	// Value is the word form itself.
	Value string `json:"value"`

	// Freq is the absolute frequency of the form.
	Freq float64 `json:"freq"`

	// Ratio is the share of the form among all forms of the lemma in percent.
	Ratio float64 `json:"ratio"`

	// InteractionID links the form to subqueries issued by other tiles.
	InteractionID string `json:"interactionId"`
}
