package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"assetmatch/internal/infra/sqltest"
	"assetmatch/internal/sqlinline"
)

func TestExtractMarker(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantMarker string
		wantQuery  string
		wantErr    bool
	}{
		{
			name:       "valid marker",
			query:      "\n--sql 3e829bdb-4b47-4c93-8084-30ecc162e891\ndelete from asset_providers;\n",
			wantMarker: "3e829bdb-4b47-4c93-8084-30ecc162e891",
			wantQuery:  "delete from asset_providers;",
		},
		{name: "missing marker", query: "select 1;", wantErr: true},
		{name: "uppercase uuid rejected", query: "--sql 3E829BDB-4B47-4C93-8084-30ECC162E891\nselect 1;", wantErr: true},
		{name: "empty", query: "   ", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			marker, query, err := extractMarker(tc.query)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("extractMarker: %v", err)
			}
			if marker != tc.wantMarker || query != tc.wantQuery {
				t.Fatalf("extractMarker() = %q, %q", marker, query)
			}
		})
	}
}

func TestProviderQueriesPassMarkerCheck(t *testing.T) {
	for _, q := range []string{
		sqlinline.QListAssetProviders,
		sqlinline.QSelectAssetProvider,
		sqlinline.QUpsertAssetProvider,
		sqlinline.QDeleteAssetProvider,
	} {
		if _, _, err := extractMarker(q); err != nil {
			t.Fatalf("query rejected: %v\n%s", err, q)
		}
	}
}

func TestSQLRunnerRejectsUnmarkedQueries(t *testing.T) {
	r := NewSQLRunner(nil, zerolog.Nop())
	ctx := context.Background()
	if _, err := r.Exec(ctx, "delete from asset_providers"); err == nil {
		t.Fatal("Exec must reject unmarked query")
	}
	if _, err := r.Query(ctx, "select 1"); err == nil {
		t.Fatal("Query must reject unmarked query")
	}
	var n int
	if err := r.QueryRow(ctx, "select 1").Scan(&n); err == nil {
		t.Fatal("QueryRow must reject unmarked query")
	}
}

func TestLoggingRowsCountsAndCloses(t *testing.T) {
	var buf bytes.Buffer
	inner := sqltest.NewRows([]any{"pexels"}, []any{"unsplash"})
	rows := &loggingRows{Rows: inner, logger: zerolog.New(&buf).Level(zerolog.DebugLevel), marker: "m-1"}
	for rows.Next() {
	}
	rows.Close()
	if !inner.Closed() {
		t.Fatal("inner rows not closed")
	}
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if line["sql"] != "m-1" || line["rows"] != float64(2) || line["level"] != "debug" {
		t.Fatalf("unexpected log line %v", line)
	}
}

func TestLoggingRowNoRowsIsNotAnError(t *testing.T) {
	var buf bytes.Buffer
	row := loggingRow{row: sqltest.NewSimpleRow(nil), logger: zerolog.New(&buf), marker: "m-2"}
	if err := row.Scan(); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
	if bytes.Contains(buf.Bytes(), []byte(`"level":"error"`)) {
		t.Fatalf("no rows must not log an error: %s", buf.String())
	}
}
