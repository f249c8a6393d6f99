// Package parsers turns raw scanner/sensor output into structured records
// the rest of the pipeline can work with. Every entry point is pure and
// best-effort: malformed input yields an empty result (or, for structurally
// broken XML, an error), never a panic.
package parsers

import (
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/netsecio/netsecd/internal/necerr"
)

// NmapPort is a single scanned port as reported in an nmap XML report.
type NmapPort struct {
	Port     int
	Protocol string
	State    string
	Service  map[string]string
}

// NmapHost is one <host> block of an nmap run.
type NmapHost struct {
	Status    string
	Addresses map[string]string
	Hostnames []map[string]string
	Ports     []NmapPort
	OS        map[string]string
}

// NmapScanResult is the parsed form of a full nmap XML document.
type NmapScanResult struct {
	ScanInfo map[string]string
	Hosts    []NmapHost
}

// ParseNmapXML walks an nmap XML report token by token and extracts hosts,
// addresses, ports and OS guesses. It does not attempt to validate the
// document against nmap's DTD; it only looks for the elements it knows
// about and ignores everything else.
//
// A document that isn't well-formed XML (mismatched tags, truncated input)
// returns an error. Plain text that happens to parse as zero XML tokens
// returns an empty result without error, matching the original scanner's
// tolerance for non-XML stdout (e.g. nmap invoked with the wrong flags).
func ParseNmapXML(data string) (*NmapScanResult, error) {
	dec := xml.NewDecoder(strings.NewReader(data))

	result := &NmapScanResult{ScanInfo: map[string]string{}}

	var curHost *NmapHost

	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, necerr.Wrap(necerr.KindParse, "parse nmap xml", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "nmaprun":
				for _, a := range el.Attr {
					result.ScanInfo[a.Name.Local] = a.Value
				}
			case "host":
				curHost = &NmapHost{Addresses: map[string]string{}}
			case "status":
				if curHost != nil {
					curHost.Status = attrValue(el, "state")
				}
			case "address":
				if curHost != nil {
					addrType := attrValue(el, "addrtype")
					if addrType == "" {
						addrType = "ipv4"
					}
					curHost.Addresses[addrType] = attrValue(el, "addr")
					if vendor := attrValue(el, "vendor"); vendor != "" {
						curHost.Addresses["vendor"] = vendor
					}
				}
			case "hostname":
				if curHost != nil {
					curHost.Hostnames = append(curHost.Hostnames, map[string]string{
						"name": attrValue(el, "name"),
						"type": attrValue(el, "type"),
					})
				}
			case "port":
				if curHost != nil {
					portNum, _ := strconv.Atoi(attrValue(el, "portid"))
					curHost.Ports = append(curHost.Ports, NmapPort{
						Port:     portNum,
						Protocol: attrValue(el, "protocol"),
						Service:  map[string]string{},
					})
				}
			case "state":
				if curHost != nil && len(curHost.Ports) > 0 {
					last := &curHost.Ports[len(curHost.Ports)-1]
					last.State = attrValue(el, "state")
				}
			case "service":
				if curHost != nil && len(curHost.Ports) > 0 {
					last := &curHost.Ports[len(curHost.Ports)-1]
					for _, a := range el.Attr {
						last.Service[a.Name.Local] = a.Value
					}
				}
			case "osmatch":
				if curHost != nil {
					curHost.OS = map[string]string{
						"name":     attrValue(el, "name"),
						"accuracy": attrValue(el, "accuracy"),
					}
				}
			}
		case xml.EndElement:
			if el.Name.Local == "host" && curHost != nil {
				result.Hosts = append(result.Hosts, *curHost)
				curHost = nil
			}
		}
	}

	return result, nil
}

func attrValue(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
