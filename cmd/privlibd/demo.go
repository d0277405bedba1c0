package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"privlib/internal/lifecycle"
)

const demoWallet = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"

var (
	demoAddress string
	demoTitle   string
	demoAuthor  string
	demoISBN    string
	demoPages   string
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Publish a book, disclose its page count and print the library",
	Long: `Run one scripted session against the configured contract:
  - connect a wallet and load the library
  - publish a book with an encrypted page count
  - disclose the page count, then disclose again (served from the ledger)
  - print the records, the stats and the session history`,
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().StringVar(&demoAddress, "wallet", demoWallet, "Wallet address to connect")
	demoCmd.Flags().StringVar(&demoTitle, "title", "The Left Hand of Darkness", "Book title")
	demoCmd.Flags().StringVar(&demoAuthor, "author", "Ursula K. Le Guin", "Book author")
	demoCmd.Flags().StringVar(&demoISBN, "isbn", "9780441478125", "Book ISBN")
	demoCmd.Flags().StringVar(&demoPages, "pages", "304", "Page count, non-digits are ignored")
}

func runDemo(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Close()

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "=== Confidential Library: demo session ===")
	if err := a.connect(ctx, demoAddress); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	fmt.Fprintf(out, "Wallet %s connected to contract %s (%d books)\n",
		a.wallet.Address(), a.ctrl.ContractAddress(), len(a.ctrl.Records()))

	if err := checkContract(ctx, a.ctrl); err != nil {
		return err
	}

	start := time.Now()
	pub, err := a.ctrl.Publish(ctx, lifecycle.PublishInput{
		Title:  demoTitle,
		Author: demoAuthor,
		ISBN:   demoISBN,
		Pages:  demoPages,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Published %s (tx %s) in %s\n", pub.ID, pub.TxHash, time.Since(start).Round(time.Millisecond))

	start = time.Now()
	d, err := a.ctrl.Disclose(ctx, pub.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Disclosed %s: %d pages (tx %s) in %s\n", d.RecordID, d.Value, d.TxHash, time.Since(start).Round(time.Millisecond))

	again, err := a.ctrl.Disclose(ctx, pub.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Disclosed again: %d pages, served from the ledger: %t\n", again.Value, again.Cached)

	printLibrary(out, a.ctrl)
	return nil
}

func checkContract(ctx context.Context, ctrl *lifecycle.Controller) error {
	ok, err := ctrl.CheckAvailability(ctx)
	if err != nil {
		return fmt.Errorf("check availability: %w", err)
	}
	if !ok {
		return fmt.Errorf("contract %s is not available", ctrl.ContractAddress())
	}
	return nil
}

func printLibrary(out io.Writer, ctrl *lifecycle.Controller) {
	now := time.Now()
	fmt.Fprintf(out, "\n=== Library ===\n")
	for _, r := range ctrl.Records() {
		pages := "concealed"
		if v, ok := r.Revealed(); ok {
			pages = humanize.Comma(int64(v)) + " verified"
		}
		fmt.Fprintf(out, "%-22s %-30s %-16s %s\n", r.ID, r.Title, pages,
			humanize.RelTime(time.Unix(r.CreatedAt, 0), now, "ago", "from now"))
	}

	st := ctrl.Stats()
	fmt.Fprintf(out, "\n=== Stats ===\n")
	fmt.Fprintf(out, "Total books:      %s\n", humanize.Comma(int64(st.TotalBooks)))
	fmt.Fprintf(out, "Verified books:   %s\n", humanize.Comma(int64(st.VerifiedBooks)))
	fmt.Fprintf(out, "Average pages:    %s\n", humanize.CommafWithDigits(st.AvgPages, 1))
	fmt.Fprintf(out, "Added this week:  %s\n", humanize.Comma(int64(st.RecentAdditions)))

	fmt.Fprintf(out, "\n=== Session history ===\n")
	for _, e := range ctrl.History(lifecycle.HistoryLimit) {
		fmt.Fprintf(out, "%-9s %-22s %s\n", strings.ToUpper(string(e.Action)), e.RecordID, e.TxHash)
	}
}
