package api

import "time"

// Customer is a customer account record.
type Customer struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customerId"`
	Name          string    `json:"name,omitempty"`
	AccountStatus string    `json:"accountStatus,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CallLog records one inbound call and the IVR path it took.
type CallLog struct {
	ID        string     `json:"id"`
	Caller    string     `json:"caller"`
	IVRPath   string     `json:"ivrPath,omitempty"`
	CallStart *time.Time `json:"callStart,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Item is a generic named record.
type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// CustomerDataResponse is the envelope returned by GET /customer-data.
// Data holds a single *Customer or a []Customer.
type CustomerDataResponse struct {
	Status      string `json:"status"`
	AccessedVia string `json:"accessedVia"`
	Data        any    `json:"data"`

	// AccessToken is set when the caller authenticated with a client
	// id/secret pair and a token was minted for them.
	AccessToken string `json:"accessToken,omitempty"`
}

// TokenRequest is the body accepted by POST /token.
type TokenRequest struct {
	ClientID     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// TokenResponse is returned by a successful POST /token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
