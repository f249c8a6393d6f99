package passive

import "testing"

func TestParseMdnsNameValid(t *testing.T) {
	service, proto, ok := ParseMdnsName("_http._tcp.local")
	if !ok || service != "http" || proto != "tcp" {
		t.Errorf("got (%q, %q, %v), want (http, tcp, true)", service, proto, ok)
	}
}

func TestParseMdnsNameInvalid(t *testing.T) {
	cases := []string{"garbage", "no_dots", "foo.local", "http.tcp.local"}
	for _, c := range cases {
		if _, _, ok := ParseMdnsName(c); ok {
			t.Errorf("ParseMdnsName(%q) should not match, got ok=true", c)
		}
	}
}

func TestParseSsdpResponseValid(t *testing.T) {
	response := "HTTP/1.1 200 OK\r\n" +
		"LOCATION: http://192.168.1.1:80/desc.xml\r\n" +
		"SERVER: Linux/3.0 UPnP/1.0\r\n" +
		"USN: uuid:device-1234\r\n" +
		"ST: upnp:rootdevice\r\n\r\n"

	dev := ParseSsdpResponse(response)
	if dev == nil {
		t.Fatal("expected a parsed device")
	}
	if dev.Location != "http://192.168.1.1:80/desc.xml" {
		t.Errorf("location = %q", dev.Location)
	}
	if dev.Server != "Linux/3.0 UPnP/1.0" {
		t.Errorf("server = %q", dev.Server)
	}
	if dev.USN != "uuid:device-1234" {
		t.Errorf("usn = %q", dev.USN)
	}
	if dev.ST != "upnp:rootdevice" {
		t.Errorf("st = %q", dev.ST)
	}
}

func TestParseSsdpResponseMissingLocation(t *testing.T) {
	response := "SERVER: Linux/3.0\r\nUSN: uuid:1234\r\n"
	if dev := ParseSsdpResponse(response); dev != nil {
		t.Errorf("expected nil without LOCATION, got %+v", dev)
	}
}

func TestParseSsdpResponseEmpty(t *testing.T) {
	if ParseSsdpResponse("") != nil {
		t.Error("expected nil for empty response")
	}
	if ParseSsdpResponse("   ") != nil {
		t.Error("expected nil for blank response")
	}
}
