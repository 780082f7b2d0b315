package api

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	customerIDPrefix = "cus_"
	callLogIDPrefix  = "call_"
	itemIDPrefix     = "item_"
)

var (
	customerIDPattern = regexp.MustCompile(`^cus_[0-9a-f]{32}$`)
	callLogIDPattern  = regexp.MustCompile(`^call_[0-9a-f]{32}$`)
	itemIDPattern     = regexp.MustCompile(`^item_[0-9a-f]{32}$`)
)

// NewCustomerID generates a record ID with the "cus_" prefix
// followed by the 32 hex digits of a random UUID.
func NewCustomerID() string {
	return customerIDPrefix + randomHex()
}

// NewCallLogID generates a record ID with the "call_" prefix.
func NewCallLogID() string {
	return callLogIDPrefix + randomHex()
}

// NewItemID generates a record ID with the "item_" prefix.
func NewItemID() string {
	return itemIDPrefix + randomHex()
}

// ValidateCustomerID checks whether id is a well-formed customer record ID.
func ValidateCustomerID(id string) bool {
	return customerIDPattern.MatchString(id)
}

// ValidateCallLogID checks whether id is a well-formed call log record ID.
func ValidateCallLogID(id string) bool {
	return callLogIDPattern.MatchString(id)
}

// ValidateItemID checks whether id is a well-formed item record ID.
func ValidateItemID(id string) bool {
	return itemIDPattern.MatchString(id)
}

func randomHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
