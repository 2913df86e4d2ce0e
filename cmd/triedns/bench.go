package main

import (
	"fmt"
	"io"
	"net"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/jroosing/triedns/internal/dns"
)

type benchOptions struct {
	server      string
	name        string
	qtype       string
	concurrency int
	requests    int
	timeout     time.Duration
	recvSize    int
}

type benchResult struct {
	latencies []float64 // milliseconds, sorted
	failures  int64
	elapsed   time.Duration
}

func newBenchCmd() *cobra.Command {
	opts := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Load test a DNS server with repeated UDP queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			qtype, err := dns.QTypeFromString(opts.qtype)
			if err != nil {
				return err
			}
			name, err := dns.ParseName(opts.name)
			if err != nil {
				return err
			}
			req := dns.NewQuery(0xBEEF, name, qtype)
			reqBytes, err := req.Encode()
			if err != nil {
				return err
			}

			res, err := runBench(opts, reqBytes)
			if err != nil {
				return err
			}
			printBench(cmd.OutOrStdout(), opts, res)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.server, "server", "s", "127.0.0.1:7777", "DNS server HOST:PORT")
	f.StringVarP(&opts.name, "name", "n", "example.com", "Query name")
	f.StringVarP(&opts.qtype, "type", "t", "A", "Query type")
	f.IntVar(&opts.concurrency, "concurrency", 200, "Number of concurrent workers")
	f.IntVar(&opts.requests, "requests", 20000, "Total number of requests")
	f.DurationVar(&opts.timeout, "timeout", 2*time.Second, "Per-request timeout")
	f.IntVar(&opts.recvSize, "recv-size", 2048, "UDP receive buffer size")
	return cmd
}

func runBench(opts *benchOptions, reqBytes []byte) (benchResult, error) {
	addr, err := net.ResolveUDPAddr("udp", opts.server)
	if err != nil {
		return benchResult{}, err
	}

	conc := max(opts.concurrency, 1)
	total := max(opts.requests, 1)
	per := total / conc
	rem := total % conc

	var (
		lat      = make([]float64, 0, total)
		latMu    sync.Mutex
		failures atomic.Int64
		wg       sync.WaitGroup
	)

	t0 := time.Now()
	for i := range conc {
		n := per
		if i < rem {
			n++
		}
		if n <= 0 {
			continue
		}
		wg.Add(1)
		go func(num int) {
			defer wg.Done()
			c, err := net.DialUDP("udp", nil, addr)
			if err != nil {
				failures.Add(int64(num))
				return
			}
			defer c.Close()
			buf := make([]byte, opts.recvSize)
			for range num {
				start := time.Now()
				_ = c.SetDeadline(start.Add(opts.timeout))
				if _, err := c.Write(reqBytes); err != nil {
					failures.Add(1)
					continue
				}
				nn, err := c.Read(buf)
				if err != nil {
					failures.Add(1)
					continue
				}
				if _, err := dns.Decode(buf[:nn]); err != nil {
					failures.Add(1)
					continue
				}
				ms := float64(time.Since(start).Microseconds()) / 1000.0
				latMu.Lock()
				lat = append(lat, ms)
				latMu.Unlock()
			}
		}(n)
	}
	wg.Wait()

	slices.Sort(lat)
	return benchResult{latencies: lat, failures: failures.Load(), elapsed: time.Since(t0)}, nil
}

func printBench(w io.Writer, opts *benchOptions, res benchResult) {
	if len(res.latencies) == 0 {
		fmt.Fprintf(w, "no successful requests (%d failed)\n", res.failures)
		return
	}
	lat := res.latencies
	qps := float64(len(lat)) / res.elapsed.Seconds()

	fmt.Fprintf(w, "server=%s name=%q type=%s concurrency=%d ok=%d failed=%d\n",
		opts.server, opts.name, opts.qtype, max(opts.concurrency, 1), len(lat), res.failures)
	fmt.Fprintf(w, "elapsed_s=%.3f qps=%.1f\n", res.elapsed.Seconds(), qps)
	fmt.Fprintf(w, "latency_ms p50=%.3f p95=%.3f p99=%.3f min=%.3f max=%.3f\n",
		percentile(lat, 50), percentile(lat, 95), percentile(lat, 99), lat[0], lat[len(lat)-1])
}

func percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	idx := int(float64(len(sorted))*float64(p)/100.0) - 1
	return sorted[min(max(idx, 0), len(sorted)-1)]
}
