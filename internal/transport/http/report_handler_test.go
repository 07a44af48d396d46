package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lessonpulse/internal/services"
)

const classCSV = `Session ID,Course ID,Seat Capacity,Start,End
s1,c1,1,2026-03-01 10:00:00,2026-03-01 11:00:00
s2,c1,6,2026-03-02 10:00:00,2026-03-02 11:00:00
`

const participantCSV = `Session ID,Username,Is Teacher,Attended
s1,teacher1,true,true
s1,alice,false,true
s2,teacher1,true,true
s2,alice,false,false
`

func newTestServer(t *testing.T) (*httptest.Server, *services.DatasetService) {
	t.Helper()
	svc := services.NewDatasetService(nil)
	handler := NewReportHandler(svc, nil, 0)

	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv, svc
}

func uploadDataset(t *testing.T, srv *httptest.Server) string {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	classes, err := w.CreateFormFile("classes", "classes.csv")
	require.NoError(t, err)
	_, err = classes.Write([]byte(classCSV))
	require.NoError(t, err)

	participants, err := w.CreateFormFile("participants", "participants.csv")
	require.NoError(t, err)
	_, err = participants.Write([]byte(participantCSV))
	require.NoError(t, err)

	require.NoError(t, w.Close())

	resp, err := http.Post(srv.URL+"/", w.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ds struct {
		ID       string `json:"id"`
		Sessions int    `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ds))
	assert.Equal(t, 2, ds.Sessions)
	return ds.ID
}

func TestCreateAndListDatasets(t *testing.T) {
	srv, _ := newTestServer(t)
	id := uploadDataset(t, srv)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Datasets []struct {
			ID string `json:"id"`
		} `json:"datasets"`
		Reports []string `json:"reports"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listing))
	require.Len(t, listing.Datasets, 1)
	assert.Equal(t, id, listing.Datasets[0].ID)
	assert.Equal(t, services.ReportNames, listing.Reports)
}

func TestCreateDatasetMissingFile(t *testing.T) {
	srv, _ := newTestServer(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	classes, err := w.CreateFormFile("classes", "classes.csv")
	require.NoError(t, err)
	_, err = classes.Write([]byte(classCSV))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, err := http.Post(srv.URL+"/", w.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestGetReport(t *testing.T) {
	srv, _ := newTestServer(t)
	id := uploadDataset(t, srv)

	resp, err := http.Get(srv.URL + "/" + id + "/reports/performance-private")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Report string `json:"report"`
		Tables []struct {
			Name    string     `json:"name"`
			Headers []string   `json:"headers"`
			Rows    [][]string `json:"rows"`
		} `json:"tables"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, "performance-private", payload.Report)
	require.Len(t, payload.Tables, 1)
	require.Len(t, payload.Tables[0].Rows, 1)
	assert.Equal(t, "teacher1", payload.Tables[0].Rows[0][0])
}

func TestGetReportWithSettings(t *testing.T) {
	srv, _ := newTestServer(t)
	id := uploadDataset(t, srv)

	resp, err := http.Get(srv.URL + "/" + id + "/reports/compensation?detailed=true&window=12")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetReportInvalidSettings(t *testing.T) {
	srv, _ := newTestServer(t)
	id := uploadDataset(t, srv)

	resp, err := http.Get(srv.URL + "/" + id + "/reports/compensation?no_show_rate=150")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetReportNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	id := uploadDataset(t, srv)

	resp, err := http.Get(srv.URL + "/nope/reports/compensation")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/" + id + "/reports/nonsense")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/" + id + "/reports/course-detail?course=missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteDataset(t *testing.T) {
	srv, svc := newTestServer(t)
	id := uploadDataset(t, srv)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, svc.List())
}
