//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/safetydesk/safetydesk/internal/testutil"
)

func TestActionLifecycle(t *testing.T) {
	client := newTestClient(t)
	loginAsReporter(t, client)
	ids := resolveLookups(t, client)

	incidentID := createTestIncident(t, client, ids, uniqueTitle("Action host"))
	actionID := createTestAction(t, client, incidentID, ids.ManagerID)

	// The action appears in the incident's list with resolved names
	resp, err := client.GET(fmt.Sprintf("/api/v1/incidents/%d/actions", incidentID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Data []struct {
			ID             int64  `json:"id"`
			Type           string `json:"action_type"`
			Status         string `json:"status"`
			AssignedToName string `json:"assigned_to_name"`
			CreatedByName  string `json:"created_by_name"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &list)
	require.Len(t, list.Data, 1)
	require.Equal(t, actionID, list.Data[0].ID)
	require.Equal(t, "Corrective", list.Data[0].Type)
	require.Equal(t, "Pending", list.Data[0].Status)
	require.Equal(t, "Morgan Manager", list.Data[0].AssignedToName)
	require.Equal(t, "Riley Reporter", list.Data[0].CreatedByName)

	// Complete the action
	resp, err = client.PUT(fmt.Sprintf("/api/v1/actions/%d", actionID), map[string]interface{}{
		"description":    "Inspect and repair",
		"action_type":    "Corrective",
		"assigned_to_id": ids.ManagerID,
		"completed_date": time.Now().Format(time.RFC3339),
		"status":         "Completed",
		"notes":          "Guard rail replaced",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data struct {
			Updated bool `json:"updated"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)
	require.True(t, result.Data.Updated)
}

func TestCreateActionTypeIsCaseInsensitive(t *testing.T) {
	client := newTestClient(t)
	loginAsReporter(t, client)
	ids := resolveLookups(t, client)

	incidentID := createTestIncident(t, client, ids, uniqueTitle("Case test"))
	actionID := createTestAction(t, client, incidentID, ids.ManagerID, withActionType("preventive"))

	resp, err := client.GET(fmt.Sprintf("/api/v1/incidents/%d/actions", incidentID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Data []struct {
			ID   int64  `json:"id"`
			Type string `json:"action_type"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &list)
	require.Len(t, list.Data, 1)
	require.Equal(t, actionID, list.Data[0].ID)
	require.Equal(t, "Preventive", list.Data[0].Type)
}

func TestCreateActionInvalidType(t *testing.T) {
	client := newTestClient(t)
	loginAsReporter(t, client)
	ids := resolveLookups(t, client)

	incidentID := createTestIncident(t, client, ids, uniqueTitle("Bad action type"))

	resp, err := client.POST(fmt.Sprintf("/api/v1/incidents/%d/actions", incidentID), map[string]interface{}{
		"description":    "Do something",
		"action_type":    "Other",
		"assigned_to_id": ids.ManagerID,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, errorMessage(t, resp), `invalid action type: "Other"`)
}

func TestCreateActionOnUnknownIncident(t *testing.T) {
	client := newTestClient(t)
	loginAsReporter(t, client)
	ids := resolveLookups(t, client)

	resp, err := client.POST("/api/v1/incidents/999999999/actions", map[string]interface{}{
		"description":    "Orphan",
		"action_type":    "Corrective",
		"assigned_to_id": ids.ManagerID,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestUpdateUnknownAction(t *testing.T) {
	client := newTestClient(t)
	loginAsReporter(t, client)
	ids := resolveLookups(t, client)

	resp, err := client.PUT("/api/v1/actions/999999999", map[string]interface{}{
		"description":    "Ghost",
		"action_type":    "Corrective",
		"assigned_to_id": ids.ManagerID,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestOverdueActions(t *testing.T) {
	client := newTestClient(t)
	loginAsReporter(t, client)
	ids := resolveLookups(t, client)

	incidentID := createTestIncident(t, client, ids, uniqueTitle("Overdue host"))
	overdueID := createTestAction(t, client, incidentID, ids.ManagerID,
		withDueDate(time.Now().Add(-72*time.Hour)))
	// Completed actions never count as overdue, however old the due date
	completedID := createTestAction(t, client, incidentID, ids.ManagerID,
		withDueDate(time.Now().Add(-72*time.Hour)))

	resp, err := client.PUT(fmt.Sprintf("/api/v1/actions/%d", completedID), map[string]interface{}{
		"description":    "Inspect and repair",
		"action_type":    "Corrective",
		"assigned_to_id": ids.ManagerID,
		"due_date":       time.Now().Add(-72 * time.Hour).Format(time.RFC3339),
		"completed_date": time.Now().Format(time.RFC3339),
		"status":         "Completed",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = client.GET("/api/v1/actions/overdue")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list struct {
		Data []struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &list)

	found := make(map[int64]bool)
	for _, a := range list.Data {
		found[a.ID] = true
	}
	require.True(t, found[overdueID], "overdue action missing from listing")
	require.False(t, found[completedID], "completed action must not be listed as overdue")
}
