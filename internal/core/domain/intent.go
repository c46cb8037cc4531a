package domain

import "strings"

// Intent is the closed-set category of a user question.
type Intent string

// Available intents.
const (
	IntentGreeting    Intent = "GREETING"
	IntentLocation    Intent = "LOCATION"
	IntentPrice       Intent = "PRICE"
	IntentFacility    Intent = "FACILITY"
	IntentService     Intent = "SERVICE"
	IntentReservation Intent = "RESERVATION"
	IntentContact     Intent = "CONTACT"
	IntentCompanyInfo Intent = "COMPANY_INFO"

	// IntentOffTopic covers everything else, including unrecognised labels.
	IntentOffTopic Intent = "OFF_TOPIC"
)

// IntentLabelPrefix is the label the classifier prompt ends with.
// Models often echo it back in front of the category.
const IntentLabelPrefix = "카테고리:"

// ParseIntent decodes raw classifier output into the closed intent set.
// The first occurrence of the label prefix is removed, the rest is trimmed and
// upper-cased. Anything that is not a known intent becomes IntentOffTopic.
func ParseIntent(raw string) Intent {
	label := strings.Replace(raw, IntentLabelPrefix, "", 1)
	label = strings.ToUpper(strings.TrimSpace(label))

	intent := Intent(label)
	if !intent.IsValid() {
		return IntentOffTopic
	}
	return intent
}

// IsValid returns true if the intent is part of the closed set.
func (i Intent) IsValid() bool {
	switch i {
	case IntentGreeting, IntentOffTopic:
		return true
	default:
		return i.IsBusiness()
	}
}

// IsBusiness returns true for intents that are answered from retrieved documents.
func (i Intent) IsBusiness() bool {
	switch i {
	case IntentLocation, IntentPrice, IntentFacility, IntentService,
		IntentReservation, IntentContact, IntentCompanyInfo:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (i Intent) String() string {
	return string(i)
}
