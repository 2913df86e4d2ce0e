package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jroosing/triedns/internal/dns"
)

type queryOptions struct {
	server   string
	qtype    string
	timeout  time.Duration
	recvSize int
	quiet    bool
}

func newQueryCmd() *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query <name>",
		Short: "Send one query over UDP and print the decoded reply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			qtype, err := dns.QTypeFromString(opts.qtype)
			if err != nil {
				return err
			}
			name, err := dns.ParseName(args[0])
			if err != nil {
				return err
			}

			req := dns.NewQuery(uint16(rand.Uint32()), name, qtype)
			reqBytes, err := req.Encode()
			if err != nil {
				return err
			}

			resp, err := exchangeUDP(opts.server, reqBytes, opts.timeout, opts.recvSize)
			if err != nil {
				return err
			}
			if opts.quiet {
				return nil
			}

			msg, err := dns.Decode(resp)
			if err != nil {
				return fmt.Errorf("received %d bytes (unparseable): %w", len(resp), err)
			}
			if msg.Header.ID != req.Header.ID {
				return fmt.Errorf("reply id %d does not match query id %d", msg.Header.ID, req.Header.ID)
			}
			printMessage(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.server, "server", "s", "127.0.0.1:7777", "DNS server HOST:PORT")
	f.StringVarP(&opts.qtype, "type", "t", "A", "Query type (A, CNAME, TXT, ANY, ...)")
	f.DurationVar(&opts.timeout, "timeout", 2*time.Second, "Timeout")
	f.IntVar(&opts.recvSize, "recv-size", 2048, "UDP receive buffer size")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress output (exit status indicates success)")
	return cmd
}

func exchangeUDP(server string, req []byte, timeout time.Duration, recvSize int) ([]byte, error) {
	addr, err := net.ResolveUDPAddr("udp", server)
	if err != nil {
		return nil, err
	}
	c, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	_ = c.SetDeadline(time.Now().Add(timeout))
	if _, err := c.Write(req); err != nil {
		return nil, err
	}
	buf := make([]byte, recvSize)
	n, err := c.Read(buf)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, fmt.Errorf("no reply from %s within %s", server, timeout)
		}
		return nil, err
	}
	return buf[:n], nil
}

func printMessage(w io.Writer, m dns.Message) {
	f := m.Header.Flags
	fmt.Fprintf(w, "id=%d rcode=%s aa=%t tc=%t rd=%t ra=%t answers=%d authorities=%d additionals=%d\n",
		m.Header.ID, f.RCode, f.AA, f.TC, f.RD, f.RA,
		len(m.Answers), len(m.Authorities), len(m.Additionals))
	for _, q := range m.Questions {
		fmt.Fprintf(w, ";%s\n", q)
	}
	for _, rr := range m.Answers {
		fmt.Fprintln(w, formatRR(rr))
	}
}

// formatRR renders a record in zone-file style. Rdata names that use
// compression pointers cannot be resolved without the full message and are
// shown as hex.
func formatRR(rr dns.ResourceRecord) string {
	prefix := fmt.Sprintf("%s %d %s %s", rr.Name, rr.TTL, rr.Class, rr.Type)
	switch rr.Type {
	case dns.TypeA:
		if len(rr.Data) == 4 {
			return prefix + " " + netip.AddrFrom4([4]byte(rr.Data)).String()
		}
	case dns.TypeAAAA:
		if len(rr.Data) == 16 {
			return prefix + " " + netip.AddrFrom16([16]byte(rr.Data)).String()
		}
	case dns.TypeCNAME:
		off := 0
		if target, err := dns.DecodeName(rr.Data, &off); err == nil && off == len(rr.Data) {
			return prefix + " " + target.String()
		}
	case dns.TypeTXT:
		if parts, ok := splitCharStrings(rr.Data); ok {
			return prefix + ` "` + strings.Join(parts, `" "`) + `"`
		}
	}
	return prefix + " \\# " + hex.EncodeToString(rr.Data)
}

func splitCharStrings(b []byte) ([]string, bool) {
	var parts []string
	for len(b) > 0 {
		n := int(b[0])
		if 1+n > len(b) {
			return nil, false
		}
		parts = append(parts, string(b[1:1+n]))
		b = b[1+n:]
	}
	return parts, true
}
