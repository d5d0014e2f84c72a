package cli

import (
	"github.com/spf13/cobra"

	"github.com/tickbook/tickbook/internal/notify"
	"github.com/tickbook/tickbook/internal/track"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Run the over-threshold daily notification check once",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		checker := notify.NewChecker(st, track.SystemClock{}, notify.NewSMTPMailer(cfg.SMTP), cfg.Notify.ThresholdHours)
		if err := checker.RunOnce(cmd.Context()); err != nil {
			return err
		}
		checker.Wait()
		return nil
	},
}
