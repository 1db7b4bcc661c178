package events

// Topic constants for quote lifecycle events.
const (
	TopicQuoteComputed = "quote.computed"
	TopicPriceUpdated  = "price.updated"
	TopicTaxUpdated    = "tax.updated"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicQuoteComputed,
		TopicPriceUpdated,
		TopicTaxUpdated,
	}
}
