package passive

import (
	"context"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/ipv4"

	"github.com/netsecio/netsecd/internal/eventbus"
	"github.com/netsecio/netsecd/internal/necerr"
	"github.com/netsecio/netsecd/internal/store"
)

const (
	mdnsMulticastAddr = "224.0.0.251"
	mdnsPort          = 5353
	ssdpMulticastAddr = "239.255.255.250"
	ssdpPort          = 1900

	recvBufSize = 4096
)

// Scanner listens for mDNS and SSDP multicast traffic and upserts discovered
// devices.
type Scanner struct {
	store *store.Store
	bus   *eventbus.Bus

	mu       sync.Mutex
	conns    []*net.UDPConn
	stopped  chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewScanner builds a passive Scanner.
func NewScanner(st *store.Store, bus *eventbus.Bus) *Scanner {
	return &Scanner{
		store:   st,
		bus:     bus,
		stopped: make(chan struct{}),
	}
}

// StartMdns joins the mDNS multicast group and processes responses in a
// background goroutine until Shutdown is called.
func (s *Scanner) StartMdns(ctx context.Context) error {
	conn, pconn, err := joinMulticastGroup(mdnsMulticastAddr, mdnsPort)
	if err != nil {
		return err
	}
	s.trackConn(conn)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer conn.Close()

		buf := make([]byte, recvBufSize)
		for {
			select {
			case <-s.stopped:
				log.Printf("[passive] mDNS listener shutting down")
				return
			default:
			}

			n, _, src, err := pconn.ReadFrom(buf)
			if err != nil {
				select {
				case <-s.stopped:
					return
				default:
					log.Printf("[passive] mDNS recv error: %v", err)
					continue
				}
			}

			sourceIP := hostFromAddr(src)
			record := ParseMdnsResponse(buf[:n], sourceIP)
			if record == nil {
				continue
			}
			if _, err := ProcessMdnsDiscovery(ctx, s.store, s.bus, record, sourceIP); err != nil {
				log.Printf("[passive] failed to process mDNS discovery: %v", err)
			}
		}
	}()

	return nil
}

// StartSsdp sends an M-SEARCH discovery request to the SSDP multicast group
// and processes responses in a background goroutine until Shutdown is called.
func (s *Scanner) StartSsdp(ctx context.Context) error {
	conn, pconn, err := joinMulticastGroup(ssdpMulticastAddr, ssdpPort)
	if err != nil {
		return err
	}
	s.trackConn(conn)

	target := &net.UDPAddr{IP: net.ParseIP(ssdpMulticastAddr), Port: ssdpPort}
	if _, err := conn.WriteTo([]byte(BuildSsdpMsearch()), target); err != nil {
		log.Printf("[passive] failed to send SSDP M-SEARCH: %v", err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer conn.Close()

		buf := make([]byte, recvBufSize)
		for {
			select {
			case <-s.stopped:
				log.Printf("[passive] SSDP listener shutting down")
				return
			default:
			}

			n, _, src, err := pconn.ReadFrom(buf)
			if err != nil {
				select {
				case <-s.stopped:
					return
				default:
					log.Printf("[passive] SSDP recv error: %v", err)
					continue
				}
			}

			sourceIP := hostFromAddr(src)
			ssdpDevice := ParseSsdpResponse(string(buf[:n]))
			if ssdpDevice == nil {
				continue
			}
			if _, err := ProcessSsdpDiscovery(ctx, s.store, s.bus, ssdpDevice, sourceIP); err != nil {
				log.Printf("[passive] failed to process SSDP discovery: %v", err)
			}
		}
	}()

	return nil
}

// trackConn registers a listener socket so Shutdown can force it closed.
func (s *Scanner) trackConn(conn *net.UDPConn) {
	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.mu.Unlock()
}

// Shutdown signals all listener goroutines to stop, closes their sockets so
// a blocked ReadFrom returns immediately, and waits for them to exit. Safe
// to call more than once.
func (s *Scanner) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.stopped)
		s.mu.Lock()
		conns := s.conns
		s.mu.Unlock()
		for _, conn := range conns {
			conn.Close()
		}
	})
	s.wg.Wait()
}

// joinMulticastGroup binds a UDP socket to the given port and joins the
// given IPv4 multicast group, returning both the raw connection (for
// WriteTo) and an ipv4.PacketConn wrapper (for group membership/ReadFrom).
func joinMulticastGroup(addr string, port int) (*net.UDPConn, *ipv4.PacketConn, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, nil, necerr.Wrap(necerr.KindNetwork, "listen udp on port "+strconv.Itoa(port), err)
	}

	pconn := ipv4.NewPacketConn(conn)
	group := net.UDPAddr{IP: net.ParseIP(addr)}
	if iface, err := defaultMulticastInterface(); err == nil {
		if err := pconn.JoinGroup(iface, &group); err != nil {
			conn.Close()
			return nil, nil, necerr.Wrap(necerr.KindNetwork, "join multicast group "+addr, err)
		}
	} else if err := pconn.JoinGroup(nil, &group); err != nil {
		conn.Close()
		return nil, nil, necerr.Wrap(necerr.KindNetwork, "join multicast group "+addr, err)
	}

	return conn, pconn, nil
}

// defaultMulticastInterface picks the first interface that supports
// multicast, letting JoinGroup bind to a real NIC instead of relying on
// the OS's default multicast route.
func defaultMulticastInterface() (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for i := range ifaces {
		iface := ifaces[i]
		if iface.Flags&net.FlagMulticast != 0 && iface.Flags&net.FlagUp != 0 {
			return &iface, nil
		}
	}
	return nil, necerr.New(necerr.KindNetwork, "no multicast-capable interface found")
}

func hostFromAddr(addr net.Addr) string {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}

// ParseMdnsResponse extracts mDNS record fields from raw DNS response
// bytes: checks minimum length, walks the first question's length-prefixed
// labels, and associates the resulting name with the source IP.
func ParseMdnsResponse(data []byte, sourceIP string) *MdnsRecord {
	if len(data) < 12 {
		return nil
	}

	pos := 12 // skip the DNS header
	var labels []string

	for pos < len(data) {
		labelLen := int(data[pos])
		if labelLen == 0 {
			break
		}
		if labelLen&0xC0 == 0xC0 {
			// Pointer compression; not followed for this basic parse.
			break
		}
		pos++
		if pos+labelLen > len(data) {
			break
		}
		labels = append(labels, string(data[pos:pos+labelLen]))
		pos += labelLen
	}

	if len(labels) == 0 {
		return nil
	}

	serviceType := strings.Join(labels, ".")

	var hostname string
	if service, _, ok := ParseMdnsName(serviceType); ok {
		hostname = service + "." + sourceIP
	} else {
		hostname = serviceType
	}

	return &MdnsRecord{
		Hostname:    hostname,
		ServiceType: serviceType,
		IP:          sourceIP,
	}
}

// BuildSsdpMsearch builds an SSDP M-SEARCH discovery request.
func BuildSsdpMsearch() string {
	return "M-SEARCH * HTTP/1.1\r\n" +
		"HOST: 239.255.255.250:1900\r\n" +
		"MAN: \"ssdp:discover\"\r\n" +
		"MX: 3\r\n" +
		"ST: ssdp:all\r\n" +
		"\r\n"
}
