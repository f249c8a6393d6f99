package parsers

import "testing"

func TestParseZeekLog(t *testing.T) {
	data := "#separator \\x09\n" +
		"#fields\tts\tid.orig_h\tid.resp_h\tid.resp_p\tproto\tconn_state\n" +
		"1700000000.0\t10.0.0.1\t10.0.0.2\t80\ttcp\tS0\n" +
		"1700000001.0\t10.0.0.1\t-\t(empty)\ttcp\tSF\n"

	records := ParseZeekLog(data)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first["conn_state"] != "S0" || first["id.resp_h"] != "10.0.0.2" {
		t.Errorf("unexpected first record: %+v", first)
	}

	second := records[1]
	if _, ok := second["id.resp_h"]; ok {
		t.Errorf("expected id.resp_h to be omitted for '-' value, got %+v", second)
	}
	if _, ok := second["id.resp_p"]; ok {
		t.Errorf("expected id.resp_p to be omitted for '(empty)' value, got %+v", second)
	}
}

func TestParseZeekLogNoHeader(t *testing.T) {
	data := "1700000000.0\t10.0.0.1\t10.0.0.2\t80\ttcp\tS0\n"
	records := ParseZeekLog(data)
	if len(records) != 0 {
		t.Errorf("expected no records without a #fields header, got %d", len(records))
	}
}
