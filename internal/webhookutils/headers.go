package webhookutils

import (
	"net/http"
	"strings"
)

// Header names sent by GitHub with every webhook delivery.
const (
	HeaderEvent     = "X-GitHub-Event"
	HeaderDelivery  = "X-GitHub-Delivery"
	HeaderSignature = "X-Hub-Signature-256"
)

// DeliveryHeaders holds the webhook headers the endpoint acts on.
type DeliveryHeaders struct {
	Event     string
	Delivery  string
	Signature string
	// HasSignature distinguishes an absent signature header from an empty one.
	HasSignature bool
}

// ReadDeliveryHeaders extracts the webhook headers from an inbound request.
func ReadDeliveryHeaders(h http.Header) DeliveryHeaders {
	flat := flatten(h)
	signature, ok := GetHeaderCaseInsensitive(flat, HeaderSignature)
	event, _ := GetHeaderCaseInsensitive(flat, HeaderEvent)
	delivery, _ := GetHeaderCaseInsensitive(flat, HeaderDelivery)
	return DeliveryHeaders{
		Event:        strings.TrimSpace(event),
		Delivery:     strings.TrimSpace(delivery),
		Signature:    signature,
		HasSignature: ok,
	}
}

// GetHeaderCaseInsensitive retrieves a header value using case-insensitive key matching.
// Go's HTTP library canonicalizes header keys (X-GitHub-Event becomes X-Github-Event),
// so exact string matches against a flattened map can fail.
func GetHeaderCaseInsensitive(headers map[string]string, key string) (string, bool) {
	keyLower := strings.ToLower(key)
	for k, v := range headers {
		if strings.ToLower(k) == keyLower {
			return v, true
		}
	}
	return "", false
}

func flatten(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}
