package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/olyamironova/order-matcher/internal/domain"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "quote:BTC_USD", key(domain.BTCUSD))
	assert.NotEqual(t, key(domain.BTCUSD), key(domain.ETHUSD))
}
