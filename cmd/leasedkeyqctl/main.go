package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	leasedkeyq "github.com/nickweedon/leasedkeyq"

	"github.com/eiannone/keyboard"
	"github.com/spf13/cobra"
)

var (
	defaultLeaseTTL time.Duration
	reaperInterval  time.Duration
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "leasedkeyqctl",
		Short: "An interactive demo of the leasedkeyq keyed leased queue",
		Long: `leasedkeyqctl drives a single in-process leasedkeyq.Queue[string, string]
from the keyboard so you can watch puts, leases, acks, and reaper expiry happen
live.`,
		RunE: runDemo,
	}

	rootCmd.Flags().DurationVar(&defaultLeaseTTL, "lease-ttl", 10*time.Second, "Default lease timeout for leases issued by 'g'")
	rootCmd.Flags().DurationVar(&reaperInterval, "reaper-interval", 100*time.Millisecond, "Interval between reaper scans")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session tracks the outstanding leases issued through the demo loop, oldest
// first, so 'a' and 'r' have something concrete to act on.
type session struct {
	mu      sync.Mutex
	tokens  []leasedkeyq.LeaseToken
	nextSeq int
}

func (s *session) record(token leasedkeyq.LeaseToken) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, token)
}

func (s *session) takeOldest() (leasedkeyq.LeaseToken, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tokens) == 0 {
		return "", false
	}
	token := s.tokens[0]
	s.tokens = s.tokens[1:]
	return token, true
}

func runDemo(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	q := leasedkeyq.New[string, string](
		leasedkeyq.WithDefaultLeaseTimeout(defaultLeaseTTL),
		leasedkeyq.WithReaperInterval(reaperInterval),
		leasedkeyq.WithLogger(logger),
	)
	q.Start()
	defer q.Close()

	sess := &session{}

	fmt.Printf("leasedkeyq demo started (lease-ttl=%s, reaper-interval=%s)\n\n", defaultLeaseTTL, reaperInterval)
	printStatus(q)

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if err := keyboard.Open(); err != nil {
		return fmt.Errorf("failed to initialize keyboard: %w", err)
	}
	defer keyboard.Close()

	keyCh := make(chan rune)
	go func() {
		for {
			char, _, err := keyboard.GetKey()
			if err != nil {
				return
			}
			keyCh <- char
		}
	}()

	for {
		select {
		case <-ticker.C:
			printStatus(q)
		case key := <-keyCh:
			switch key {
			case 'p', 'P':
				sess.mu.Lock()
				sess.nextSeq++
				n := sess.nextSeq
				sess.mu.Unlock()
				k := fmt.Sprintf("item-%d", n)
				v := fmt.Sprintf("payload-%d", n)
				if err := q.Put(k, v, leasedkeyq.PolicyUpdate); err != nil {
					fmt.Fprintf(os.Stderr, "put failed: %v\n", err)
					break
				}
				fmt.Printf("put %s = %s\n", k, v)
			case 'g', 'G':
				k, v, token, err := q.Get(0, leasedkeyq.NoTimeout)
				if err != nil {
					fmt.Fprintf(os.Stderr, "get: %v\n", err)
					break
				}
				sess.record(token)
				fmt.Printf("leased %s = %s (token %s)\n", k, v, token)
			case 'a', 'A':
				token, ok := sess.takeOldest()
				if !ok {
					fmt.Println("no outstanding leases to ack")
					break
				}
				if err := q.Ack(token); err != nil {
					fmt.Fprintf(os.Stderr, "ack failed: %v\n", err)
					break
				}
				fmt.Printf("acked %s\n", token)
			case 'r', 'R':
				token, ok := sess.takeOldest()
				if !ok {
					fmt.Println("no outstanding leases to release")
					break
				}
				if err := q.Release(token, false); err != nil {
					fmt.Fprintf(os.Stderr, "release failed: %v\n", err)
					break
				}
				fmt.Printf("released %s\n", token)
			case 'c', 'C':
				fmt.Printf("\n\ncrashing immediately (no cleanup)...\n")
				os.Exit(1)
			case 'q', 'Q':
				fmt.Printf("\n\nshutting down gracefully...\n")
				return nil
			}
		case sig := <-sigCh:
			fmt.Printf("\n\nreceived signal %v, crashing immediately (no cleanup)...\n", sig)
			os.Exit(1)
		}
	}
}

func printStatus(q *leasedkeyq.Queue[string, string]) {
	fmt.Print("\033[2J\033[H")
	fmt.Printf("available: %d   in-flight: %d\n", q.QSize(), q.InflightSize())
	fmt.Printf("available keys: %v\n", q.AvailableKeys())
	fmt.Printf("in-flight keys: %v\n\n", q.InflightKeys())
	fmt.Println("Controls:")
	fmt.Println("  [p] put a new auto-generated item")
	fmt.Println("  [g] get (lease) the oldest available item")
	fmt.Println("  [a] ack the oldest outstanding lease")
	fmt.Println("  [r] release the oldest outstanding lease")
	fmt.Println("  [c] crash without cleanup")
	fmt.Println("  [q] quit gracefully")
}
