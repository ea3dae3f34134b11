package cmd

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zalepa/educenso/config"
	"github.com/zalepa/educenso/parser"
)

//go:embed web.html
var htmlContent embed.FS

type metadata struct {
	Motives []string     `json:"motives"`
	Sexes   []labelValue `json:"sexes"`
	Bands   []labelValue `json:"bands"`
	Years   []int        `json:"years"`
}

type labelValue struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type seriesResponse struct {
	Title  string       `json:"title"`
	Dates  []string     `json:"dates"`
	Series []seriesData `json:"series"`
}

type seriesData struct {
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
}

// dashboard serves one loaded set of motive records.
type dashboard struct {
	records []parser.Record
	meta    []byte
}

func newDashboard(records []parser.Record) (*dashboard, error) {
	meta, err := json.Marshal(buildMetadata(records))
	if err != nil {
		return nil, err
	}
	return &dashboard{records: records, meta: meta}, nil
}

func (d *dashboard) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", d.handleIndex)
	r.Route("/api", func(r chi.Router) {
		r.Get("/metadata", d.handleMetadata)
		r.Get("/series", d.handleSeries)
		r.Get("/records", d.handleRecords)
	})
	return r
}

func (d *dashboard) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := htmlContent.ReadFile("web.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

func (d *dashboard) handleMetadata(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(d.meta)
}

func (d *dashboard) handleSeries(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	q := query{motive: v.Get("motive"), sex: v.Get("sex"), band: v.Get("band")}.normalize()

	series, dates := buildSeries(d.records, q)
	sortedDates := sortDates(dates)

	resp := seriesResponse{
		Title:  q.title(),
		Dates:  sortedDates,
		Series: []seriesData{},
	}
	for _, name := range sortedEntityNames(series) {
		aligned := alignValues(series[name], sortedDates)
		values := make([]*float64, len(aligned))
		for i, v := range aligned {
			if math.IsNaN(v) {
				continue
			}
			f := v
			values[i] = &f
		}
		resp.Series = append(resp.Series, seriesData{Name: name, Values: values})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRecords lists the raw records, optionally restricted to one year
// and to motives matching a substring.
func (d *dashboard) handleRecords(w http.ResponseWriter, r *http.Request) {
	v := r.URL.Query()
	year := 0
	if s := v.Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("invalid year %q", s)})
			return
		}
		year = y
	}
	motive := parser.Fold(v.Get("motive"))

	out := []parser.Record{}
	for _, rec := range d.records {
		if year != 0 && rec.Year != year {
			continue
		}
		if motive != "" && !strings.Contains(parser.Fold(rec.Category), motive) {
			continue
		}
		out = append(out, rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func buildMetadata(records []parser.Record) metadata {
	motiveSet := make(map[string]bool)
	yearSet := make(map[int]bool)
	for _, rec := range records {
		motiveSet[rec.Category] = true
		yearSet[rec.Year] = true
	}

	motives := make([]string, 0, len(motiveSet))
	for m := range motiveSet {
		motives = append(motives, m)
	}
	sort.Strings(motives)

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	sexes := make([]labelValue, len(validSexes))
	for i, s := range validSexes {
		sexes[i] = labelValue{Value: s, Label: sexLabel(s)}
	}
	bands := make([]labelValue, len(validBands))
	for i, b := range validBands {
		bands[i] = labelValue{Value: b, Label: bandLabel(b)}
	}

	return metadata{
		Motives: motives,
		Sexes:   sexes,
		Bands:   bands,
		Years:   years,
	}
}

// Web implements the "web" subcommand.
func Web(ctx context.Context, args []string) {
	defaultPort := 8080
	if cfg, err := config.Load(""); err == nil {
		defaultPort = cfg.Server.Port
	}

	fs := flag.NewFlagSet("web", flag.ExitOnError)
	file := fs.String("file", "", "motives CSV written by process (default: configured output)")
	dbPath := fs.String("sqlite", "", "read the records from this SQLite database instead")
	port := fs.Int("port", defaultPort, "HTTP server port")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: educenso web [file] [--port 8080]\n\nStart an interactive web dashboard.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	args = reorderArgs(args, "file", "sqlite", "port")
	fs.Parse(args)

	if fs.NArg() > 0 {
		*file = fs.Arg(0)
	}
	if *file == "" {
		*file = defaultMotivesFile()
	}

	records, err := loadMotives(ctx, *file, *dbPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "error loading data: %v\n", err)
		os.Exit(1)
	}
	if len(records) == 0 {
		fmt.Fprintf(os.Stderr, "warning: no records in %s, starting with empty data\n", *file)
	}

	d, err := newDashboard(records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           d.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	fmt.Printf("serving on http://localhost%s\n", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
