// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package netid resolves the caller's public network address. The address
// is annotation metadata only, so every failure yields Unknown.
package netid

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
)

// Unknown is recorded when the address cannot be determined.
const Unknown = "unknown"

// DefaultURL is the ipify JSON endpoint.
const DefaultURL = "https://api.ipify.org?format=json"

type ipifyResponse struct {
	IP string `json:"ip"`
}

// Lookup asks lookupURL for the caller's address. It never returns an
// error: network failures, bad status codes, malformed bodies, and values
// that are not IP addresses all give Unknown.
func Lookup(ctx context.Context, client *http.Client, lookupURL string) string {
	if lookupURL == "" {
		return Unknown
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return Unknown
	}

	resp, err := client.Do(req)
	if err != nil {
		return Unknown
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Unknown
	}

	var body ipifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Unknown
	}
	if net.ParseIP(body.IP) == nil {
		return Unknown
	}
	return body.IP
}

// Resolver binds Lookup to a client and URL.
func Resolver(client *http.Client, lookupURL string) func(context.Context) string {
	return func(ctx context.Context) string {
		return Lookup(ctx, client, lookupURL)
	}
}
