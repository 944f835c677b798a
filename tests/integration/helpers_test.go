//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/safetydesk/safetydesk/internal/testutil"
)

var titleCounter int64

// uniqueTitle returns a title that no other test in this run has used,
// so keyword searches only match their own incidents.
func uniqueTitle(prefix string) string {
	n := atomic.AddInt64(&titleCounter, 1)
	return fmt.Sprintf("%s %d-%d", prefix, time.Now().UnixNano(), n)
}

func loginAsAdmin(t *testing.T, client *testutil.Client) {
	t.Helper()
	client.LoginAs(t, "admin@example.com", testPassword)
}

func loginAsManager(t *testing.T, client *testutil.Client) {
	t.Helper()
	client.LoginAs(t, "manager@example.com", testPassword)
}

func loginAsReporter(t *testing.T, client *testutil.Client) {
	t.Helper()
	client.LoginAs(t, "reporter@example.com", testPassword)
}

func loginAsViewer(t *testing.T, client *testutil.Client) {
	t.Helper()
	client.LoginAs(t, "viewer@example.com", testPassword)
}

// lookupIDs holds reference data ids resolved from the seeded catalog.
type lookupIDs struct {
	DepartmentID int64
	LocationID   int64
	CategoryID   int64
	ReporterID   int64
	ManagerID    int64
}

// resolveLookups fetches the first seeded department, location, and
// category plus the ids of the seeded reporter and manager users.
// The client must already be logged in.
func resolveLookups(t *testing.T, client *testutil.Client) lookupIDs {
	t.Helper()

	var ids lookupIDs
	ids.DepartmentID = firstLookupID(t, client, "/api/v1/departments")
	ids.LocationID = firstLookupID(t, client, "/api/v1/locations")
	ids.CategoryID = firstLookupID(t, client, "/api/v1/categories")
	ids.ReporterID = userIDByEmail(t, client, "reporter@example.com")
	ids.ManagerID = userIDByEmail(t, client, "manager@example.com")
	return ids
}

func firstLookupID(t *testing.T, client *testutil.Client, path string) int64 {
	t.Helper()

	resp, err := client.GET(path)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data []struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	require.NotEmpty(t, result.Data, "no seeded rows behind %s", path)
	return result.Data[0].ID
}

func userIDByEmail(t *testing.T, client *testutil.Client, email string) int64 {
	t.Helper()

	resp, err := client.GET("/api/v1/users")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data []struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)

	for _, u := range result.Data {
		if u.Email == email {
			return u.ID
		}
	}
	t.Fatalf("user %s not found", email)
	return 0
}

// incidentPayload builds a valid incident create body. Override fields
// via opts before posting.
func incidentPayload(ids lookupIDs, title string, opts ...func(map[string]interface{})) map[string]interface{} {
	payload := map[string]interface{}{
		"title":          title,
		"description":    "Integration test incident",
		"severity_level": 2,
		"incident_date":  time.Now().Add(-24 * time.Hour).Format(time.RFC3339),
		"location_id":    ids.LocationID,
		"department_id":  ids.DepartmentID,
		"category_id":    ids.CategoryID,
	}
	for _, opt := range opts {
		opt(payload)
	}
	return payload
}

func withSeverity(level int) func(map[string]interface{}) {
	return func(m map[string]interface{}) {
		m["severity_level"] = level
	}
}

func withInjuries() func(map[string]interface{}) {
	return func(m map[string]interface{}) {
		m["injuries_involved"] = true
	}
}

func withCost(cost float64) func(map[string]interface{}) {
	return func(m map[string]interface{}) {
		m["estimated_cost"] = cost
	}
}

// createTestIncident posts an incident and returns its id.
func createTestIncident(t *testing.T, client *testutil.Client, ids lookupIDs, title string, opts ...func(map[string]interface{})) int64 {
	t.Helper()

	resp, err := client.POST("/api/v1/incidents", incidentPayload(ids, title, opts...))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	require.Positive(t, result.Data.ID)
	return result.Data.ID
}

// createTestAction posts a follow-up action on an incident and returns
// its id.
func createTestAction(t *testing.T, client *testutil.Client, incidentID, assigneeID int64, opts ...func(map[string]interface{})) int64 {
	t.Helper()

	payload := map[string]interface{}{
		"description":    "Inspect and repair",
		"action_type":    "Corrective",
		"assigned_to_id": assigneeID,
		"due_date":       time.Now().Add(7 * 24 * time.Hour).Format(time.RFC3339),
	}
	for _, opt := range opts {
		opt(payload)
	}

	resp, err := client.POST(fmt.Sprintf("/api/v1/incidents/%d/actions", incidentID), payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	require.Positive(t, result.Data.ID)
	return result.Data.ID
}

func withDueDate(due time.Time) func(map[string]interface{}) {
	return func(m map[string]interface{}) {
		m["due_date"] = due.Format(time.RFC3339)
	}
}

func withActionType(actionType string) func(map[string]interface{}) {
	return func(m map[string]interface{}) {
		m["action_type"] = actionType
	}
}

// getIncident fetches one incident by id into a generic map.
func getIncident(t *testing.T, client *testutil.Client, id int64) map[string]interface{} {
	t.Helper()

	resp, err := client.GET(fmt.Sprintf("/api/v1/incidents/%d", id))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data map[string]interface{} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

// errorMessage decodes the error envelope of a response.
func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()

	var result struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	testutil.DecodeJSON(t, resp, &result)
	return result.Error.Message
}
