//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/safetydesk/safetydesk/internal/testutil"
)

func TestTriggerDigest(t *testing.T) {
	client := newTestClient(t)
	loginAsManager(t, client)

	resp, err := client.POST("/api/v1/notifications/digest", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var result struct {
		Data struct {
			Queued int `json:"queued"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	// Notifications are disabled in the test config, so nothing queues,
	// but the endpoint still responds with the count.
	require.Zero(t, result.Data.Queued)
}

func TestTriggerDigestRequiresManager(t *testing.T) {
	client := newTestClient(t)
	loginAsReporter(t, client)

	resp, err := client.POST("/api/v1/notifications/digest", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}
