package main

import (
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
)

func TestRetryCountReadsHeader(t *testing.T) {
	assert.Equal(t, int32(0), retryCount(nil))
	assert.Equal(t, int32(0), retryCount(amqp.Table{}))
	assert.Equal(t, int32(2), retryCount(amqp.Table{"x-retry-count": int32(2)}))
	assert.Equal(t, int32(0), retryCount(amqp.Table{"x-retry-count": "2"}), "non-int header counts as fresh")
}

func TestRetryPublishingCarriesIncrementedHeader(t *testing.T) {
	body := []byte(`{"campaign":{"id":"c1"}}`)
	pub := retryPublishing(body, 1)

	assert.Equal(t, body, pub.Body)
	assert.Equal(t, "application/json", pub.ContentType)
	assert.Equal(t, int32(1), retryCount(pub.Headers))
}

// A job that fails on every delivery must stop cycling once the cap is hit:
// initial attempt plus maxRetries redeliveries.
func TestRetryCapTerminates(t *testing.T) {
	var headers amqp.Table
	deliveries := 0
	for {
		deliveries++
		attempt := retryCount(headers)
		if attempt >= maxRetries {
			break
		}
		headers = retryPublishing(nil, attempt+1).Headers
	}
	assert.Equal(t, maxRetries+1, deliveries)
}
