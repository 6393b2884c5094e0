package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rotisserie/eris"
)

var (
	exchangeURL string
	exchangeOut string
)

var exchangeCmd = &cobra.Command{
	Use:   "exchange",
	Short: "Pull supplier order files over FTP",
	Long:  "Downloads a supplier order file from the configured FTP exchange and either saves it locally or parses it and prints a summary.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		ftpURL := exchangeURL
		if ftpURL == "" {
			ftpURL = cfg.Exchange.URL
		}
		if ftpURL == "" {
			return eris.New("exchange: no url given (--url or exchange.url)")
		}

		client, err := initFTP()
		if err != nil {
			return err
		}

		if exchangeOut != "" {
			n, err := client.DownloadToFile(ctx, ftpURL, exchangeOut)
			if err != nil {
				return err
			}
			zap.L().Info("supplier file downloaded",
				zap.String("url", ftpURL),
				zap.String("path", exchangeOut),
				zap.Int64("bytes", n),
			)
			fmt.Fprintf(os.Stdout, "%s (%d bytes)\n", exchangeOut, n)
			return nil
		}

		candidates, err := client.FetchPurchases(ctx, ftpURL)
		if err != nil {
			return err
		}

		fmt.Printf("%d purchase orders\n", len(candidates))
		priced := 0
		for _, c := range candidates {
			if c.TotalCost != nil {
				priced++
			}
		}
		fmt.Printf("%d with cost, %d pending enrichment\n", priced, len(candidates)-priced)
		return nil
	},
}

func init() {
	exchangeCmd.Flags().StringVar(&exchangeURL, "url", "", "ftp url of the supplier order file (default from config)")
	exchangeCmd.Flags().StringVar(&exchangeOut, "out", "", "save the raw file here instead of parsing it")
	rootCmd.AddCommand(exchangeCmd)
}
