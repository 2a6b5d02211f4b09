package payment

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jiopay/internal/config"
)

func testClient(secret string) *Client {
	return NewClient(config.GatewayConfig{
		Environment: "uat",
		MerchantID:  "M123",
		SecretKey:   secret,
	}, zap.NewNop())
}

func TestVerifySecureHash_WithMatchingHash_ShouldPass(t *testing.T) {
	c := testClient("topsecret")

	hash := c.ComputeSecureHash("AUTH-1", "0000", "75000", "7001002003")

	require.True(t, c.VerifySecureHash("AUTH-1", "0000", "75000", "7001002003", hash))
}

func TestVerifySecureHash_WithTamperedField_ShouldFail(t *testing.T) {
	c := testClient("topsecret")

	hash := c.ComputeSecureHash("AUTH-1", "0000", "75000", "7001002003")

	require.False(t, c.VerifySecureHash("AUTH-1", "0000", "99999", "7001002003", hash))
	require.False(t, c.VerifySecureHash("AUTH-1", "5003", "75000", "7001002003", hash))
	require.False(t, c.VerifySecureHash("AUTH-2", "0000", "75000", "7001002003", hash))
}

func TestVerifySecureHash_WithEmptyHash_ShouldPass(t *testing.T) {
	// Older SDK builds omit the field entirely.
	c := testClient("topsecret")

	require.True(t, c.VerifySecureHash("AUTH-1", "0000", "75000", "7001002003", ""))
}

func TestVerifySecureHash_WithoutConfiguredSecret_ShouldPass(t *testing.T) {
	c := testClient("")

	require.True(t, c.VerifySecureHash("AUTH-1", "0000", "75000", "7001002003", "whatever"))
}

func TestComputeSecureHash_IsDeterministic(t *testing.T) {
	c := testClient("topsecret")

	first := c.ComputeSecureHash("AUTH-1", "0000", "75000", "7001002003")
	second := c.ComputeSecureHash("AUTH-1", "0000", "75000", "7001002003")

	require.Equal(t, first, second)
	require.Len(t, first, 64)
}
