package api

import "strings"

// ValidateCustomer checks a customer submitted for insertion.
func ValidateCustomer(c *Customer) *ValidationError {
	if strings.TrimSpace(c.CustomerID) == "" {
		return NewRequiredFieldError("customerId")
	}
	return nil
}

// ValidateCallLog checks a call log submitted for insertion.
func ValidateCallLog(l *CallLog) *ValidationError {
	if strings.TrimSpace(l.Caller) == "" {
		return NewRequiredFieldError("caller")
	}
	return nil
}

// ValidateItem checks an item submitted for insertion.
func ValidateItem(item *Item) *ValidationError {
	if strings.TrimSpace(item.Name) == "" {
		return NewRequiredFieldError("name")
	}
	return nil
}
