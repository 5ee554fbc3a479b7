package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/zonedash/internal/app"
)

// runApp builds the services and launches the TUI. Logs go to the log
// file since the terminal belongs to the TUI.
func runApp(cmd *cobra.Command) error {
	e, err := setup(cmd, nil)
	if err != nil {
		return err
	}
	defer e.Close()

	e.logger.Info("starting dashboard", "version", version)
	return app.Run(cmd.Context(), app.Options{
		Sessions: e.sessions,
		Loader:   e.loader,
		Events:   e.store.EventRepo(),
		Logger:   e.logger.With("component", "app"),
	})
}
