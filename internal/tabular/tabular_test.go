package tabular

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecodeCSV(t *testing.T) {
	t.Parallel()
	data := []byte("Phone Number,First Name,City\n0712345678,Amara,Kampala\n0700000002,Bindi,\n")
	tbl, err := Decode(data, "csv")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	wantCols := []string{"Phone Number", "First Name", "City"}
	if !reflect.DeepEqual(tbl.Columns, wantCols) {
		t.Fatalf("columns = %v, want %v", tbl.Columns, wantCols)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(tbl.Rows))
	}
	if tbl.Rows[0]["First Name"] != "Amara" {
		t.Fatalf("row 0 = %v", tbl.Rows[0])
	}
	if v, ok := tbl.Rows[1]["City"]; !ok || v != "" {
		t.Fatalf("missing cell should be present and empty, got (%q, %v)", v, ok)
	}
}

func TestDecodeShortRowPadsToEmpty(t *testing.T) {
	t.Parallel()
	tbl, err := Decode([]byte("a,b,c\n1,2\n"), "csv")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	row := tbl.Rows[0]
	if row["a"] != "1" || row["b"] != "2" || row["c"] != "" {
		t.Fatalf("row = %v", row)
	}
}

func TestDecodeTSV(t *testing.T) {
	t.Parallel()
	tbl, err := Decode([]byte("phone\tname\n0712345678\tAmara\n"), "tsv")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if tbl.Rows[0]["name"] != "Amara" {
		t.Fatalf("row = %v", tbl.Rows[0])
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()
	if _, err := Decode(nil, "csv"); !errors.Is(err, ErrEmpty) {
		t.Fatalf("empty input err = %v, want ErrEmpty", err)
	}
	if _, err := Decode([]byte("a,b\n"), "xlsx"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("unknown format err = %v, want ErrUnknownFormat", err)
	}
}
