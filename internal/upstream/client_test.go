package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wrenchworks/dispatch-api/pkg/config"
	appErrors "github.com/wrenchworks/dispatch-api/pkg/errors"
)

func newTestClient(server *httptest.Server) *Client {
	return New(config.UpstreamConfig{
		IntakeBaseURL:   server.URL,
		RosterBaseURL:   server.URL,
		RoadsideBaseURL: server.URL,
	}, zap.NewNop())
}

func TestFetchTechniciansArrayPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/technicians", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"technicianId":"tech_001","name":"Andy"}]`)) //nolint:errcheck
	}))
	defer server.Close()

	records, err := newTestClient(server).FetchTechnicians(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "tech_001", records[0]["technicianId"])
}

func TestFetchJobsSingleObjectNormalized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/jobs/new", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"appointmentId":"apt_100"}`)) //nolint:errcheck
	}))
	defer server.Close()

	records, err := newTestClient(server).FetchJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "apt_100", records[0]["appointmentId"])
}

func TestFetchBatchEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	records, err := newTestClient(server).FetchRoadAssists(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchBatchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestClient(server).FetchJobs(context.Background())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUpstreamUnavailable.Code, appErr.Code)
}

func TestAssignRoadsideSendsPatch(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody) //nolint:errcheck
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"assigned"}`)) //nolint:errcheck
	}))
	defer server.Close()

	err := newTestClient(server).AssignRoadside(context.Background(), "ra_200", "tech_001")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/roadside/requests/ra_200/assign", gotPath)
	assert.Equal(t, "tech_001", gotBody["technicianId"])
}

func TestAssignRoadsideRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`already assigned`)) //nolint:errcheck
	}))
	defer server.Close()

	err := newTestClient(server).AssignRoadside(context.Background(), "ra_200", "tech_001")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUpstreamUnavailable.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "409")
}
