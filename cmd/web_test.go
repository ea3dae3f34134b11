package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/zalepa/educenso/parser"
)

func serve(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	d, err := newDashboard(vizRecords())
	if err != nil {
		t.Fatalf("newDashboard: %v", err)
	}
	rr := httptest.NewRecorder()
	d.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestWeb_Index(t *testing.T) {
	rr := serve(t, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "/api/series") {
		t.Errorf("page does not query the series endpoint")
	}
}

func TestWeb_Metadata(t *testing.T) {
	rr := serve(t, "/api/metadata")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var meta metadata
	if err := json.Unmarshal(rr.Body.Bytes(), &meta); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(meta.Motives, []string{"Por gravidez", "Trabalhava"}) {
		t.Errorf("motives = %v", meta.Motives)
	}
	if !reflect.DeepEqual(meta.Years, []int{2016, 2019}) {
		t.Errorf("years = %v", meta.Years)
	}
	if len(meta.Sexes) != 3 || meta.Sexes[2] != (labelValue{Value: "feminino", Label: "Feminino"}) {
		t.Errorf("sexes = %v", meta.Sexes)
	}
	if len(meta.Bands) != 4 || meta.Bands[1].Label != "15 a 17 anos" {
		t.Errorf("bands = %v", meta.Bands)
	}
}

func TestWeb_Series(t *testing.T) {
	rr := serve(t, "/api/series?motive=trabalh&sex=all&band=15-17")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp struct {
		Title  string   `json:"title"`
		Dates  []string `json:"dates"`
		Series []struct {
			Name   string     `json:"name"`
			Values []*float64 `json:"values"`
		} `json:"series"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(resp.Dates, []string{"2016", "2019"}) {
		t.Fatalf("dates = %v", resp.Dates)
	}
	if len(resp.Series) != 2 || resp.Series[0].Name != "Feminino" || resp.Series[1].Name != "Masculino" {
		t.Fatalf("series = %+v", resp.Series)
	}
	fem := resp.Series[0].Values
	if fem[0] == nil || *fem[0] != 3 || fem[1] != nil {
		t.Errorf("Feminino values wrong: %v", fem)
	}
	masc := resp.Series[1].Values
	if masc[0] == nil || *masc[0] != 1 || masc[1] == nil || *masc[1] != 1.5 {
		t.Errorf("Masculino values wrong: %v", masc)
	}
}

func TestWeb_SeriesNoMatch(t *testing.T) {
	rr := serve(t, "/api/series?motive=inexistente")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"series":[]`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestWeb_Records(t *testing.T) {
	rr := serve(t, "/api/records?year=2016&motive=GRAVIDEZ")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var recs []parser.Record
	if err := json.Unmarshal(rr.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 1 || recs[0].Category != "Por gravidez" || recs[0].Percentage != "0.50" {
		t.Errorf("records = %+v", recs)
	}

	rr = serve(t, "/api/records?year=2019")
	if err := json.Unmarshal(rr.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 1 || recs[0].Percentage != "1.50" {
		t.Errorf("records = %+v", recs)
	}
}

func TestWeb_RecordsBadYear(t *testing.T) {
	rr := serve(t, "/api/records?year=abc")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}
