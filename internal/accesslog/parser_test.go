package accesslog

import "testing"

const combinedLine = `203.0.113.9 - - [01/Mar/2024:10:12:01 +0000] "GET /wp-login.php HTTP/1.1" 404 512 "-" "curl/8.2.1"`

func TestParseCombined(t *testing.T) {
	rec, ok := Parse(combinedLine)
	if !ok {
		t.Fatalf("combined line not parsed")
	}
	if rec[0] != "203.0.113.9" || rec[2] != "GET" || rec[3] != "/wp-login.php" || rec[5] != "404" || rec[8] != "curl/8.2.1" {
		t.Fatalf("unexpected record %q", rec)
	}
	if _, err := ParseTime(rec[1]); err != nil {
		t.Fatalf("time: %v", err)
	}
	if Line(rec) != combinedLine {
		t.Fatalf("round trip mismatch:\n%s\n%s", Line(rec), combinedLine)
	}
}

func TestParseCommon(t *testing.T) {
	rec, ok := Parse(`10.0.0.1 - bob [01/Mar/2024:10:12:01 +0000] "POST /api/v1/items HTTP/1.1" 201 -`)
	if !ok {
		t.Fatalf("common line not parsed")
	}
	if rec[6] != "-" || rec[7] != "" || rec[8] != "" || len(rec) != len(Columns) {
		t.Fatalf("unexpected record %q", rec)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, ok := Parse("level=info msg=started"); ok {
		t.Fatalf("logfmt line must not parse")
	}
}

func TestDetect(t *testing.T) {
	g := Detect([]string{combinedLine, "", combinedLine, "garbage"})
	if g.Format != Combined || g.Confidence < 0.66 || g.Confidence > 0.67 {
		t.Fatalf("unexpected guess %s %.2f", g.Format.Name, g.Confidence)
	}
	if Detect([]string{"nothing here"}).Format != nil {
		t.Fatalf("expected no format")
	}
}
