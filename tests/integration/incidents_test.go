//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/safetydesk/safetydesk/internal/testutil"
)

func TestIncidentLifecycle(t *testing.T) {
	client := newTestClient(t)
	loginAsReporter(t, client)
	ids := resolveLookups(t, client)

	title := uniqueTitle("Forklift collision")
	incidentID := createTestIncident(t, client, ids, title, withSeverity(3), withInjuries(), withCost(1250.50))

	// Read it back with resolved display names
	incident := getIncident(t, client, incidentID)
	require.Equal(t, title, incident["title"])
	require.Equal(t, float64(3), incident["severity_level"])
	require.Equal(t, "Significant", incident["severity_label"])
	require.Equal(t, "Open", incident["status"])
	require.Equal(t, true, incident["injuries_involved"])
	require.InDelta(t, 1250.50, incident["estimated_cost"], 0.001)
	require.NotEmpty(t, incident["department_name"])
	require.NotEmpty(t, incident["location_name"])
	require.NotEmpty(t, incident["category_name"])
	require.Equal(t, "Riley Reporter", incident["reported_by_name"])

	// Update moves it through the lifecycle
	payload := incidentPayload(ids, title, withSeverity(3))
	payload["status"] = "In Progress"
	payload["root_cause"] = "Obstructed sight line at aisle crossing"

	resp, err := client.PUT(fmt.Sprintf("/api/v1/incidents/%d", incidentID), payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated struct {
		Data struct {
			Status    string `json:"status"`
			RootCause string `json:"root_cause"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &updated)
	require.Equal(t, "In Progress", updated.Data.Status)
	require.Equal(t, "Obstructed sight line at aisle crossing", updated.Data.RootCause)
}

func TestCreateIncidentForcesOpenStatus(t *testing.T) {
	client := newTestClient(t)
	loginAsReporter(t, client)
	ids := resolveLookups(t, client)

	payload := incidentPayload(ids, uniqueTitle("Status override attempt"))
	payload["status"] = "Closed"

	resp, err := client.POST("/api/v1/incidents", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)

	incident := getIncident(t, client, result.Data.ID)
	require.Equal(t, "Open", incident["status"])
}

func TestCreateIncidentReportsAllViolations(t *testing.T) {
	client := newTestClient(t)
	loginAsReporter(t, client)

	resp, err := client.POST("/api/v1/incidents", map[string]interface{}{
		"title":          "",
		"severity_level": 9,
		"incident_date":  time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Every violation comes back in one response
	msg := errorMessage(t, resp)
	require.Contains(t, msg, "title is required")
	require.Contains(t, msg, "severity must be between 1 and 5")
	require.Contains(t, msg, "incident date cannot be in the future")
}

func TestCreateIncidentDefaultsReporter(t *testing.T) {
	client := newTestClient(t)
	loginAsReporter(t, client)
	ids := resolveLookups(t, client)

	// No reported_by_id in the payload: the authenticated user is used
	incidentID := createTestIncident(t, client, ids, uniqueTitle("Reporter default"))

	incident := getIncident(t, client, incidentID)
	require.Equal(t, float64(ids.ReporterID), incident["reported_by_id"])
}

func TestUpdateIncidentRejectsUnknownStatus(t *testing.T) {
	client := newTestClient(t)
	loginAsReporter(t, client)
	ids := resolveLookups(t, client)

	incidentID := createTestIncident(t, client, ids, uniqueTitle("Bad status"))

	payload := incidentPayload(ids, uniqueTitle("Bad status"))
	payload["status"] = "Reopened"

	resp, err := client.PUT(fmt.Sprintf("/api/v1/incidents/%d", incidentID), payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, errorMessage(t, resp), "invalid status")
}

func TestUpdateUnknownIncident(t *testing.T) {
	client := newTestClient(t)
	loginAsReporter(t, client)
	ids := resolveLookups(t, client)

	resp, err := client.PUT("/api/v1/incidents/999999999", incidentPayload(ids, uniqueTitle("Ghost")))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestGetIncidentBadID(t *testing.T) {
	client := newTestClient(t)
	loginAsViewer(t, client)

	for _, path := range []string{"/api/v1/incidents/0", "/api/v1/incidents/-4"} {
		resp, err := client.WithoutValidation().GET(path)
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "id must be a positive integer", errorMessage(t, resp))
	}
}

func TestArchiveHidesFromListingsButNotByID(t *testing.T) {
	reporter := newTestClient(t)
	loginAsReporter(t, reporter)
	ids := resolveLookups(t, reporter)

	title := uniqueTitle("Archive target")
	incidentID := createTestIncident(t, reporter, ids, title)

	manager := newTestClient(t)
	loginAsManager(t, manager)

	resp, err := manager.DELETE(fmt.Sprintf("/api/v1/incidents/%d", incidentID))
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	// Gone from search by its unique title
	resp, err = reporter.GET("/api/v1/incidents/search?keyword=" + strings.ReplaceAll(title, " ", "+"))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var search struct {
		Data struct {
			Total int `json:"total"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &search)
	require.Zero(t, search.Data.Total)

	// Still retrievable by id, now marked Archived
	incident := getIncident(t, reporter, incidentID)
	require.Equal(t, "Archived", incident["status"])

	// A second archive of the same incident is a 404
	resp, err = manager.DELETE(fmt.Sprintf("/api/v1/incidents/%d", incidentID))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestListIncidentsPaging(t *testing.T) {
	client := newTestClient(t)
	loginAsReporter(t, client)
	ids := resolveLookups(t, client)

	for i := 0; i < 3; i++ {
		createTestIncident(t, client, ids, uniqueTitle("Paging filler"))
	}

	resp, err := client.GET("/api/v1/incidents?page=1&page_size=2")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data struct {
			Items    []map[string]interface{} `json:"items"`
			Total    int                      `json:"total"`
			Page     int                      `json:"page"`
			PageSize int                      `json:"page_size"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)

	require.Len(t, result.Data.Items, 2)
	require.GreaterOrEqual(t, result.Data.Total, 3)
	require.Equal(t, 1, result.Data.Page)
	require.Equal(t, 2, result.Data.PageSize)
}

func TestListIncidentsSorting(t *testing.T) {
	client := newTestClient(t)
	loginAsReporter(t, client)
	ids := resolveLookups(t, client)

	createTestIncident(t, client, ids, uniqueTitle("Sort low"), withSeverity(1))
	createTestIncident(t, client, ids, uniqueTitle("Sort high"), withSeverity(5))

	resp, err := client.GET("/api/v1/incidents?sort=severity&dir=desc&page_size=50")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data struct {
			Items []struct {
				SeverityLevel int `json:"severity_level"`
			} `json:"items"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)

	require.NotEmpty(t, result.Data.Items)
	prev := result.Data.Items[0].SeverityLevel
	for _, item := range result.Data.Items {
		require.LessOrEqual(t, item.SeverityLevel, prev)
		prev = item.SeverityLevel
	}
}

// incidentIDs fetches one page from a listing endpoint and returns the
// reported total plus the ids of the returned items.
func incidentIDs(t *testing.T, client *testutil.Client, path string) (int, []int64) {
	t.Helper()

	resp, err := client.GET(path)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data struct {
			Items []struct {
				ID int64 `json:"id"`
			} `json:"items"`
			Total int `json:"total"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &result)

	ids := make([]int64, 0, len(result.Data.Items))
	for _, item := range result.Data.Items {
		ids = append(ids, item.ID)
	}
	return result.Data.Total, ids
}

func TestSearchIncidents(t *testing.T) {
	client := newTestClient(t)
	loginAsReporter(t, client)
	ids := resolveLookups(t, client)

	title := uniqueTitle("Hydraulic leak bay nine")
	createTestIncident(t, client, ids, title, withSeverity(4))

	t.Run("by keyword", func(t *testing.T) {
		resp, err := client.GET("/api/v1/incidents/search?keyword=" + strings.ReplaceAll(title, " ", "+"))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Data struct {
				Items []struct {
					Title string `json:"title"`
				} `json:"items"`
				Total int `json:"total"`
			} `json:"data"`
		}
		testutil.DecodeJSON(t, resp, &result)
		require.Equal(t, 1, result.Data.Total)
		require.Equal(t, title, result.Data.Items[0].Title)
	})

	t.Run("by severity", func(t *testing.T) {
		resp, err := client.GET("/api/v1/incidents/search?severity=4&page_size=100")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Data struct {
				Items []struct {
					SeverityLevel int `json:"severity_level"`
				} `json:"items"`
			} `json:"data"`
		}
		testutil.DecodeJSON(t, resp, &result)
		require.NotEmpty(t, result.Data.Items)
		for _, item := range result.Data.Items {
			require.Equal(t, 4, item.SeverityLevel)
		}
	})

	t.Run("keyword is case-insensitive", func(t *testing.T) {
		keyword := strings.ReplaceAll(strings.ToUpper(title), " ", "+")
		resp, err := client.GET("/api/v1/incidents/search?keyword=" + keyword)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Data struct {
				Items []struct {
					Title string `json:"title"`
				} `json:"items"`
				Total int `json:"total"`
			} `json:"data"`
		}
		testutil.DecodeJSON(t, resp, &result)
		require.Equal(t, 1, result.Data.Total)
		require.Equal(t, title, result.Data.Items[0].Title)
	})

	t.Run("no filters matches the list", func(t *testing.T) {
		listTotal, listIDs := incidentIDs(t, client, "/api/v1/incidents?page_size=100")
		searchTotal, searchIDs := incidentIDs(t, client, "/api/v1/incidents/search?page_size=100")

		// Both result sets fit in one page, so they must be identical.
		require.LessOrEqual(t, listTotal, 100)
		require.Equal(t, listTotal, searchTotal)
		require.ElementsMatch(t, listIDs, searchIDs)
	})

	t.Run("no match", func(t *testing.T) {
		resp, err := client.GET("/api/v1/incidents/search?keyword=zzz-no-such-incident-zzz")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Data struct {
				Total int `json:"total"`
			} `json:"data"`
		}
		testutil.DecodeJSON(t, resp, &result)
		require.Zero(t, result.Data.Total)
	})

	t.Run("bad filter value", func(t *testing.T) {
		resp, err := client.GET("/api/v1/incidents/search?department_id=abc")
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "department_id must be an integer", errorMessage(t, resp))
	})
}
