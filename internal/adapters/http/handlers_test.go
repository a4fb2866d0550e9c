package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/gateflow/internal/adapters/http"
	"github.com/samirrijal/gateflow/internal/core/domain"
	"github.com/samirrijal/gateflow/internal/core/usecases"
)

// ---- Mock repository ----

type mockReportRepo struct {
	listByBatchFn func(ctx context.Context, batch string) ([]domain.RawReport, error)
	getBatchFn    func(ctx context.Context, batch string) (*domain.Batch, error)
	listBatchesFn func(ctx context.Context) ([]domain.Batch, error)
}

func (m *mockReportRepo) InsertBatch(ctx context.Context, batch string, rows []domain.RawReport) (int64, error) {
	return int64(len(rows)), nil
}

func (m *mockReportRepo) ListByBatch(ctx context.Context, batch string) ([]domain.RawReport, error) {
	if m.listByBatchFn != nil {
		return m.listByBatchFn(ctx, batch)
	}
	return nil, domain.ErrBatchNotFound
}

func (m *mockReportRepo) GetBatch(ctx context.Context, batch string) (*domain.Batch, error) {
	if m.getBatchFn != nil {
		return m.getBatchFn(ctx, batch)
	}
	return nil, domain.ErrBatchNotFound
}

func (m *mockReportRepo) ListBatches(ctx context.Context) ([]domain.Batch, error) {
	if m.listBatchesFn != nil {
		return m.listBatchesFn(ctx)
	}
	return nil, nil
}

// ---- Fixtures ----

// trackRows returns one row per latitude for a vessel sailing along lon 20.5.
func trackRows(mmsi, cog string, lats ...string) []domain.RawReport {
	out := make([]domain.RawReport, 0, len(lats))
	for _, lat := range lats {
		out = append(out, domain.RawReport{MMSI: mmsi, Lat: lat, Lon: "20.5", Cog: cog, Length: "30", Speed: "8.5"})
	}
	return out
}

// sampleRows holds three crossing vessels (111 and 333 upstream, 222
// downstream), two near misses, a repeated header, an out-of-region row and
// a duplicate, for the gate (10.2, 20.0)-(10.8, 21.0).
func sampleRows() []domain.RawReport {
	rows := []domain.RawReport{{MMSI: "MMSI", Lat: "Lat", Lon: "Lon", Cog: "Course", Length: "Length", Speed: "Speed"}}
	rows = append(rows, trackRows("111", "330", "10.05", "10.5", "10.95")...)
	rows = append(rows, trackRows("222", "150", "10.95", "10.5", "10.1")...)
	rows = append(rows, trackRows("333", "330", "10.3", "10.4", "10.5", "10.6", "10.7")...)
	rows = append(rows, trackRows("444", "330", "10.05", "10.1")...)
	rows = append(rows, trackRows("555", "150", "10.4", "10.6")...)
	rows = append(rows, trackRows("666", "330", "12.0")...)
	rows = append(rows, trackRows("111", "330", "10.05")...)
	return rows
}

const sampleGateQuery = "lat1=10.2&lon1=20&lat2=10.8&lon2=21"

// flowBody encodes an inline analysis request. Numeric cells go out as JSON
// numbers and the rest as strings, the way mixed exporters send them.
func flowBody(t *testing.T, gate map[string]any, rows []domain.RawReport) string {
	t.Helper()
	cell := func(s string) any {
		var f float64
		if _, err := fmt.Sscanf(s, "%g", &f); err == nil && fmt.Sprint(f) == s {
			return json.Number(s)
		}
		return s
	}
	jsonRows := make([]map[string]any, len(rows))
	for i, r := range rows {
		jsonRows[i] = map[string]any{
			"mmsi": cell(r.MMSI), "lat": cell(r.Lat), "lon": cell(r.Lon),
			"cog": cell(r.Cog), "length": cell(r.Length), "speed": cell(r.Speed),
		}
	}
	data, err := json.Marshal(map[string]any{"gate": gate, "rows": jsonRows})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return string(data)
}

func sampleGate() map[string]any {
	return map[string]any{"lat1": 10.2, "lon1": 20.0, "lat2": 10.8, "lon2": 21.0}
}

// ---- Helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Flows: usecases.NewFlowService(&mockReportRepo{}, nil, nil, usecases.FlowSettings{Workers: 2}),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func withRepo(repo *mockReportRepo) func(*handler.Dependencies) {
	return func(d *handler.Dependencies) {
		d.Flows = usecases.NewFlowService(repo, nil, nil, usecases.FlowSettings{Workers: 2})
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func decodeAPIError(t *testing.T, data []byte) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	if err := json.Unmarshal(data, &apiErr); err != nil {
		t.Fatalf("decode error body %q: %v", data, err)
	}
	return apiErr
}

// ---- POST /v1/flow ----

func TestAnalyzeFlow_Success(t *testing.T) {
	app := setupApp(makeDeps())

	status, data := doJSON(t, app, "POST", "/v1/flow", flowBody(t, sampleGate(), sampleRows()))
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}

	var a domain.FlowAnalysis
	if err := json.Unmarshal(data, &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Result.Count != 3 {
		t.Fatalf("expected 3 vessels, got %d", a.Result.Count)
	}
	want := []int64{111, 222, 333}
	for i, v := range a.Result.Vessels {
		if v.MMSI != want[i] {
			t.Errorf("vessel %d: expected mmsi %d, got %d", i, want[i], v.MMSI)
		}
	}
	if a.UpstreamCount != 2 || a.DownstreamCount != 1 {
		t.Errorf("expected 2 upstream / 1 downstream, got %d / %d", a.UpstreamCount, a.DownstreamCount)
	}
	if a.HeaderRowsDropped != 1 {
		t.Errorf("expected 1 header row dropped, got %d", a.HeaderRowsDropped)
	}
	if a.Split.All != nil {
		t.Error("expected split tables to be omitted by default")
	}
}

func TestAnalyzeFlow_WithSplit(t *testing.T) {
	app := setupApp(makeDeps())

	status, data := doJSON(t, app, "POST", "/v1/flow?split=true", flowBody(t, sampleGate(), sampleRows()))
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}

	var a domain.FlowAnalysis
	if err := json.Unmarshal(data, &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(a.Split.All) != 15 {
		t.Errorf("expected 15 classified rows, got %d", len(a.Split.All))
	}
	if len(a.Split.Upstream)+len(a.Split.Downstream) != 15 {
		t.Errorf("expected direction tables to cover all classified rows, got %d + %d",
			len(a.Split.Upstream), len(a.Split.Downstream))
	}
}

func TestAnalyzeFlow_AngleStrings(t *testing.T) {
	app := setupApp(makeDeps())

	gate := map[string]any{"lat1": "10:12", "lon1": 20, "lat2": "10:48", "lon2": "21"}
	status, data := doJSON(t, app, "POST", "/v1/flow", flowBody(t, gate, sampleRows()))
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}

	var a domain.FlowAnalysis
	if err := json.Unmarshal(data, &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if math.Abs(a.Gate.P1.Lat-10.2) > 1e-9 || math.Abs(a.Gate.P2.Lat-10.8) > 1e-9 {
		t.Errorf("unexpected gate %+v", a.Gate)
	}
	if a.Result.Count != 3 {
		t.Errorf("expected 3 vessels, got %d", a.Result.Count)
	}
}

func TestAnalyzeFlow_DegenerateGate(t *testing.T) {
	app := setupApp(makeDeps())

	gate := map[string]any{"lat1": 10.0, "lon1": 20.0, "lat2": 10.0, "lon2": 21.0}
	status, data := doJSON(t, app, "POST", "/v1/flow", flowBody(t, gate, sampleRows()))
	if status != 400 {
		t.Fatalf("expected 400, got %d: %s", status, data)
	}
	if apiErr := decodeAPIError(t, data); apiErr.Code != "degenerate_gate" {
		t.Errorf("expected code degenerate_gate, got %q", apiErr.Code)
	}
}

func TestAnalyzeFlow_SchemaError(t *testing.T) {
	app := setupApp(makeDeps())

	rows := append(sampleRows(), domain.RawReport{MMSI: "777", Lat: "10.5", Lon: "20.5", Cog: "n/a", Length: "1", Speed: "1"})
	status, data := doJSON(t, app, "POST", "/v1/flow", flowBody(t, sampleGate(), rows))
	if status != 400 {
		t.Fatalf("expected 400, got %d: %s", status, data)
	}
	apiErr := decodeAPIError(t, data)
	if apiErr.Code != "schema_error" {
		t.Errorf("expected code schema_error, got %q", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "cog") {
		t.Errorf("expected message to name the column, got %q", apiErr.Message)
	}
}

func TestAnalyzeFlow_Validation(t *testing.T) {
	app := setupApp(makeDeps())

	tests := []struct {
		name string
		gate map[string]any
		want string
	}{
		{"missing coordinate", map[string]any{"lat1": 10.2, "lon1": 20.0, "lon2": 21.0}, "gate.lat2: required"},
		{"latitude out of range", map[string]any{"lat1": 95.0, "lon1": 20.0, "lat2": 10.8, "lon2": 21.0}, "gate.lat1: must satisfy lte=90"},
		{"longitude out of range", map[string]any{"lat1": 10.2, "lon1": -181.0, "lat2": 10.8, "lon2": 21.0}, "gate.lon1: must satisfy gte=-180"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := doJSON(t, app, "POST", "/v1/flow", flowBody(t, tt.gate, nil))
			if status != 400 {
				t.Fatalf("expected 400, got %d: %s", status, data)
			}
			apiErr := decodeAPIError(t, data)
			if apiErr.Code != "bad_request" || !strings.Contains(apiErr.Message, tt.want) {
				t.Errorf("expected bad_request mentioning %q, got %+v", tt.want, apiErr)
			}
		})
	}
}

func TestAnalyzeFlow_InvalidBody(t *testing.T) {
	app := setupApp(makeDeps())

	status, data := doJSON(t, app, "POST", "/v1/flow", `{"gate": {"lat1": "north"}}`)
	if status != 400 {
		t.Fatalf("expected 400, got %d: %s", status, data)
	}
}

func TestAnalyzeFlow_KML(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/flow?format=kml", strings.NewReader(flowBody(t, sampleGate(), sampleRows())))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "kml") {
		t.Errorf("expected KML content type, got %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	for _, want := range []string{"<kml", "<name>gate</name>", "<name>square</name>", "crossing vessels"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("expected KML to contain %q", want)
		}
	}
}

func TestAnalyzeFlow_UnsupportedFormat(t *testing.T) {
	app := setupApp(makeDeps())

	status, data := doJSON(t, app, "POST", "/v1/flow?format=xml", flowBody(t, sampleGate(), sampleRows()))
	if status != 400 {
		t.Fatalf("expected 400, got %d: %s", status, data)
	}
}

// ---- POST /v1/gates/square ----

func TestGateSquare_Success(t *testing.T) {
	app := setupApp(makeDeps())

	status, data := doJSON(t, app, "POST", "/v1/gates/square", `{"lat1": "10:12", "lon1": 20, "lat2": "10:48", "lon2": 21}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}

	var sq handler.GateSquareResponse
	if err := json.Unmarshal(data, &sq); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sq.Square) != 5 {
		t.Fatalf("expected 5 closed-ring points, got %d", len(sq.Square))
	}
	want := []domain.GeoPoint{
		{Lat: 10.2, Lon: 20.0},
		{Lat: 10.0, Lon: 20.8},
		{Lat: 10.8, Lon: 21.0},
		{Lat: 11.0, Lon: 20.2},
		{Lat: 10.2, Lon: 20.0},
	}
	for i, p := range sq.Square {
		if math.Abs(p.Lat-want[i].Lat) > 1e-6 || math.Abs(p.Lon-want[i].Lon) > 1e-6 {
			t.Errorf("point %d: expected %+v, got %+v", i, want[i], p)
		}
	}
	if len(sq.SideLengthsNM) != 4 {
		t.Errorf("expected 4 side lengths, got %d", len(sq.SideLengthsNM))
	}
	if math.Abs(sq.UpstreamCourse-329.036243) > 1e-5 || math.Abs(sq.DownstreamCourse-149.036243) > 1e-5 {
		t.Errorf("unexpected courses %f / %f", sq.UpstreamCourse, sq.DownstreamCourse)
	}
	if math.Abs(sq.Bounds.MinLat-10.0) > 1e-6 || math.Abs(sq.Bounds.MaxLat-11.0) > 1e-6 {
		t.Errorf("unexpected bounds %+v", sq.Bounds)
	}
}

func TestGateSquare_AxisAligned(t *testing.T) {
	app := setupApp(makeDeps())

	status, data := doJSON(t, app, "POST", "/v1/gates/square", `{"lat1": 10, "lon1": 20, "lat2": 11, "lon2": 20}`)
	if status != 400 {
		t.Fatalf("expected 400, got %d: %s", status, data)
	}
	if apiErr := decodeAPIError(t, data); apiErr.Code != "degenerate_gate" {
		t.Errorf("expected code degenerate_gate, got %q", apiErr.Code)
	}
}

func TestGateSquare_KML(t *testing.T) {
	app := setupApp(makeDeps())

	status, data := doJSON(t, app, "POST", "/v1/gates/square?format=kml", `{"lat1": 10.2, "lon1": 20, "lat2": 10.8, "lon2": 21}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
	if !strings.Contains(string(data), "<Polygon>") {
		t.Error("expected the square polygon in KML output")
	}
}

// ---- Batches ----

func TestBatchFlow_Success(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockReportRepo{
		listByBatchFn: func(ctx context.Context, batch string) ([]domain.RawReport, error) {
			if batch != "2024-05-01" {
				return nil, domain.ErrBatchNotFound
			}
			return sampleRows(), nil
		},
	})))

	status, data := doJSON(t, app, "GET", "/v1/batches/2024-05-01/flow?"+sampleGateQuery, "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}

	var a domain.FlowAnalysis
	if err := json.Unmarshal(data, &a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Batch != "2024-05-01" || a.Result.Count != 3 {
		t.Errorf("expected batch 2024-05-01 with 3 vessels, got %q with %d", a.Batch, a.Result.Count)
	}
}

func TestBatchFlow_DegreesMinutes(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockReportRepo{
		listByBatchFn: func(ctx context.Context, batch string) ([]domain.RawReport, error) {
			return sampleRows(), nil
		},
	})))

	status, data := doJSON(t, app, "GET", "/v1/batches/b1/flow?lat1=10:12&lon1=20&lat2=10:48&lon2=21:00", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
}

func TestBatchFlow_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	status, data := doJSON(t, app, "GET", "/v1/batches/b1/flow?lat1=10.2&lon1=20", "")
	if status != 400 {
		t.Fatalf("expected 400, got %d: %s", status, data)
	}
	if apiErr := decodeAPIError(t, data); apiErr.Code != "bad_request" {
		t.Errorf("expected code bad_request, got %q", apiErr.Code)
	}
}

func TestBatchFlow_BadCoordinate(t *testing.T) {
	app := setupApp(makeDeps())

	for _, q := range []string{
		"lat1=north&lon1=20&lat2=10.8&lon2=21",
		"lat1=91&lon1=20&lat2=10.8&lon2=21",
		"lat1=10.2&lon1=20&lat2=10.2&lon2=20",
	} {
		status, data := doJSON(t, app, "GET", "/v1/batches/b1/flow?"+q, "")
		if status != 400 {
			t.Errorf("%s: expected 400, got %d: %s", q, status, data)
		}
	}
}

func TestBatchFlow_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	status, data := doJSON(t, app, "GET", "/v1/batches/missing/flow?"+sampleGateQuery, "")
	if status != 404 {
		t.Fatalf("expected 404, got %d: %s", status, data)
	}
}

func TestListBatches_Pagination(t *testing.T) {
	batches := make([]domain.Batch, 5)
	for i := range batches {
		batches[i] = domain.Batch{Name: fmt.Sprintf("b%d", i), Rows: 100, LoadedAt: time.Date(2024, 5, i+1, 0, 0, 0, 0, time.UTC)}
	}
	app := setupApp(makeDeps(withRepo(&mockReportRepo{
		listBatchesFn: func(ctx context.Context) ([]domain.Batch, error) { return batches, nil },
	})))

	req := httptest.NewRequest("GET", "/v1/batches?offset=2&limit=2", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Batch     `json:"data"`
		Pagination handler.Pagination `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Data) != 2 || result.Data[0].Name != "b2" {
		t.Errorf("expected page [b2 b3], got %+v", result.Data)
	}
	if result.Pagination.Total != 5 {
		t.Errorf("expected total 5, got %d", result.Pagination.Total)
	}
	if link := resp.Header.Get("Link"); !strings.Contains(link, `rel="next"`) || !strings.Contains(link, `rel="prev"`) {
		t.Errorf("expected prev and next links, got %q", link)
	}
}

func TestListBatches_Empty(t *testing.T) {
	app := setupApp(makeDeps())

	status, data := doJSON(t, app, "GET", "/v1/batches", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
	if !strings.Contains(string(data), `"data":[]`) {
		t.Errorf("expected an empty data array, got %s", data)
	}
}

func TestGetBatch(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockReportRepo{
		getBatchFn: func(ctx context.Context, batch string) (*domain.Batch, error) {
			if batch == "b1" {
				return &domain.Batch{Name: "b1", Rows: 42}, nil
			}
			return nil, domain.ErrBatchNotFound
		},
	})))

	status, data := doJSON(t, app, "GET", "/v1/batches/b1", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
	var b domain.Batch
	if err := json.Unmarshal(data, &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Rows != 42 {
		t.Errorf("expected 42 rows, got %d", b.Rows)
	}

	status, _ = doJSON(t, app, "GET", "/v1/batches/b2", "")
	if status != 404 {
		t.Errorf("expected 404 for unknown batch, got %d", status)
	}
}

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockReportRepo{
		getBatchFn: func(ctx context.Context, batch string) (*domain.Batch, error) {
			return &domain.Batch{Name: batch, Rows: 1}, nil
		},
	})))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/batches/b1", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	etag := resp.Header.Get("ETag")
	if etag == "" {
		t.Fatal("expected an ETag header")
	}

	req := httptest.NewRequest("GET", "/v1/batches/b1", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

// ---- GraphQL ----

func graphQL(t *testing.T, app *fiber.App, query string) map[string]any {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"query": query})
	status, data := doJSON(t, app, "POST", "/graphql", string(body))
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return result
}

func TestGraphQL_ExpectedCourses(t *testing.T) {
	app := setupApp(makeDeps())

	result := graphQL(t, app, `{ expectedCourses(lat1: 10.0, lon1: 20.0, lat2: 11.0, lon2: 19.0) { upstream downstream } }`)
	if result["errors"] != nil {
		t.Fatalf("unexpected errors: %v", result["errors"])
	}
	courses := result["data"].(map[string]any)["expectedCourses"].(map[string]any)
	if math.Abs(courses["upstream"].(float64)-135) > 1e-6 || math.Abs(courses["downstream"].(float64)-315) > 1e-6 {
		t.Errorf("unexpected courses %v", courses)
	}
}

func TestGraphQL_GateSquare(t *testing.T) {
	app := setupApp(makeDeps())

	result := graphQL(t, app, `{ gateSquare(lat1: 10.2, lon1: 20.0, lat2: 10.8, lon2: 21.0) { points { lat lon } side_lengths_nm } }`)
	if result["errors"] != nil {
		t.Fatalf("unexpected errors: %v", result["errors"])
	}
	sq := result["data"].(map[string]any)["gateSquare"].(map[string]any)
	if points := sq["points"].([]any); len(points) != 5 {
		t.Errorf("expected 5 points, got %d", len(points))
	}
	if sides := sq["side_lengths_nm"].([]any); len(sides) != 4 {
		t.Errorf("expected 4 side lengths, got %d", len(sides))
	}
}

func TestGraphQL_DegenerateGate(t *testing.T) {
	app := setupApp(makeDeps())

	result := graphQL(t, app, `{ gateSquare(lat1: 10.0, lon1: 20.0, lat2: 10.0, lon2: 21.0) { points { lat } } }`)
	if result["errors"] == nil {
		t.Fatal("expected a GraphQL error for an axis-aligned gate")
	}
}

func TestGraphQL_BatchFlow(t *testing.T) {
	app := setupApp(makeDeps(withRepo(&mockReportRepo{
		listByBatchFn: func(ctx context.Context, batch string) ([]domain.RawReport, error) {
			return sampleRows(), nil
		},
	})))

	result := graphQL(t, app, `{ batchFlow(batch: "b1", lat1: 10.2, lon1: 20.0, lat2: 10.8, lon2: 21.0) { batch count upstream_count vessels { mmsi } } }`)
	if result["errors"] != nil {
		t.Fatalf("unexpected errors: %v", result["errors"])
	}
	flow := result["data"].(map[string]any)["batchFlow"].(map[string]any)
	if flow["batch"] != "b1" || flow["count"].(float64) != 3 || flow["upstream_count"].(float64) != 2 {
		t.Errorf("unexpected flow %v", flow)
	}
	vessels := flow["vessels"].([]any)
	if first := vessels[0].(map[string]any); first["mmsi"] != "111" {
		t.Errorf("expected first vessel 111, got %v", first["mmsi"])
	}
}

// ---- Health ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	status, data := doJSON(t, app, "GET", "/v1/health", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if !strings.Contains(string(data), `"healthy"`) {
		t.Errorf("unexpected body %s", data)
	}
}

func TestReady_NoDatabase(t *testing.T) {
	app := setupApp(makeDeps())

	status, data := doJSON(t, app, "GET", "/v1/ready", "")
	if status != 503 {
		t.Fatalf("expected 503 without a database, got %d: %s", status, data)
	}
}
